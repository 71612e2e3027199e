package main

import (
	"testing"

	"github.com/stealthrocket/httpwire/internal/assert"
)

var rootTests = tests{
	"invoking httpwire without a command prints the introduction": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t)
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "httpwire - HTTP request wire frames\n")
		assert.Equal(t, stderr, "")
	},

	"invoking httpwire with --help shows the list of commands": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\thttpwire <command> ")
		assert.Equal(t, stderr, "")
	},
}

var unknownTests = tests{
	"an error is reported when invoking an unknown command": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.HasPrefix(t, stderr, "httpwire whatever: unknown command\n")
	},
}

var helpTests = tests{
	"calling help with an unknown command causes an error": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "help", "whatever")
		assert.Equal(t, exitCode, 2)
		assert.Equal(t, stdout, "")
		assert.Equal(t, stderr, "httpwire help whatever: unknown command\n")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, stderr, exitCode := httpwire(t, "help", "-_")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "httpwire help: flag provided but not defined")
	},

	"show the help command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "help", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\thttpwire <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the help command help with the long option": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "help", "--help")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\thttpwire <command> ")
		assert.Equal(t, stderr, "")
	},

	"show the usage of each command": func(t *testing.T) {
		for _, cmd := range []string{"config", "decode", "encode", "help", "send", "version"} {
			stdout, stderr, exitCode := httpwire(t, "help", cmd)
			assert.Equal(t, exitCode, 0)
			assert.HasPrefix(t, stdout, "Usage:\thttpwire ")
			assert.Equal(t, stderr, "")
		}
	},
}

var versionTests = tests{
	"show the version command help with the short option": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "version", "-h")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "Usage:\thttpwire version\n")
		assert.Equal(t, stderr, "")
	},

	"the version starts with the prefix httpwire": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "version")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "httpwire devel\n")
		assert.Equal(t, stderr, "")
	},

	"passing an unsupported flag to the command causes an error": func(t *testing.T) {
		_, _, exitCode := httpwire(t, "version", "-_")
		assert.Equal(t, exitCode, 2)
	},
}

var configTests = tests{
	"the configuration file is printed as is in text format": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "config")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "log:\n    level: error\n")
		assert.Equal(t, stderr, "")
	},

	"the configuration can be printed in json format": func(t *testing.T) {
		stdout, stderr, exitCode := httpwire(t, "config", "-o", "json")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "{\n  \"log\": {\n    \"level\": \"error\"\n  },\n  \"output\": \"text\",\n  \"frame\": {\n    \"maxSize\": null\n  },\n")
		assert.Equal(t, stderr, "")
	},

	"a missing configuration file yields the defaults": func(t *testing.T) {
		stdout, _, exitCode := httpwire(t, "config", "-c", "/nonexistent/config.yaml", "-o", "yaml")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "log:\n  level: info\noutput: text\nframe:\n  maxSize: null\n")
	},

	"an unsupported output format is a usage error": func(t *testing.T) {
		_, _, exitCode := httpwire(t, "config", "-o", "xml")
		assert.Equal(t, exitCode, 2)
	},
}
