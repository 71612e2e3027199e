package main

import (
	"testing"

	"github.com/stealthrocket/httpwire/internal/assert"
)

var decodeTests = tests{
	"a request frame is printed in text format": func(t *testing.T) {
		path := writeFile(t, "request.bin", requestFrame)
		stdout, stderr, exitCode := httpwire(t, "decode", path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "GET /a HTTP/1.1\nHost: x\nX: \n")
		assert.Equal(t, stderr, "")
	},

	"a request frame is printed in yaml format": func(t *testing.T) {
		stdout, _, exitCode := httpwireWithInput(t, requestFrame, "decode", "-o", "yaml", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "protocol: HTTP/1.1\nmethod: GET\npath: /a\nheader:\n  - name: Host\n    value: x\n  - name: X\n    value: \"\"\n")
	},

	"a request frame is printed in json format": func(t *testing.T) {
		stdout, _, exitCode := httpwireWithInput(t, requestFrame, "decode", "--output", "json", "-")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "{\n  \"protocol\": \"HTTP/1.1\",\n  \"method\": \"GET\",\n  \"path\": \"/a\",\n")
	},

	"the output format defaults to the configuration": func(t *testing.T) {
		config := writeFile(t, "config.yaml", []byte("output: json\n"))
		stdout, _, exitCode := httpwireWithInput(t, requestFrame, "decode", "-c", config, "-")
		assert.Equal(t, exitCode, 0)
		assert.HasPrefix(t, stdout, "{\n")
	},

	"a header-only frame is printed": func(t *testing.T) {
		frame := []byte{0, 0, 0, 1, 'A', 0, 0, 0, 1, '1'}
		stdout, _, exitCode := httpwireWithInput(t, frame, "decode", "--headers", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "A: 1\n")
	},

	"an HTTP/2 frame is printed with its pseudo-headers": func(t *testing.T) {
		frame := []byte{
			0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 7, ':', 'm', 'e', 't', 'h', 'o', 'd', 0, 0, 0, 3, 'P', 'U', 'T',
			0, 0, 0, 5, ':', 'p', 'a', 't', 'h', 0, 0, 0, 2, '/', 'x',
		}
		stdout, _, exitCode := httpwireWithInput(t, frame, "decode", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "PUT /x HTTP/2\n:method: PUT\n:path: /x\n")
	},

	"a truncated frame causes an error": func(t *testing.T) {
		frame := []byte{0, 0, 0, 2, 0, 0, 0, 5, 'a', 'b', 'c'}
		stdout, stderr, exitCode := httpwireWithInput(t, frame, "decode", "-")
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "")
		assert.HasPrefix(t, stderr, "ERR: httpwire decode: httpbridge: invalid argument")
	},

	"passing more than one input is a usage error": func(t *testing.T) {
		_, _, exitCode := httpwire(t, "decode", "a.bin", "b.bin")
		assert.Equal(t, exitCode, 2)
	},
}
