package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stealthrocket/httpwire/internal/assert"
)

const requestYAML = `
protocol: HTTP/1.1
method: GET
path: /a
header:
  - name: Host
    value: x
  - name: X
    value: ""
`

var requestFrame = []byte{
	0, 0, 0, 2,
	0, 0, 0, 3, 'G', 'E', 'T',
	0, 0, 0, 2, '/', 'a',
	0, 0, 0, 4, 'H', 'o', 's', 't',
	0, 0, 0, 1, 'x',
	0, 0, 0, 1, 'X',
	0, 0, 0, 0,
}

var encodeTests = tests{
	"a request document is encoded to its frame": func(t *testing.T) {
		path := writeFile(t, "request.yaml", []byte(requestYAML))
		stdout, stderr, exitCode := httpwire(t, "encode", path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string(requestFrame))
		assert.Equal(t, stderr, "")
	},

	"the request document is read from stdin": func(t *testing.T) {
		stdout, _, exitCode := httpwireWithInput(t, []byte(requestYAML), "encode", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string(requestFrame))
	},

	"json documents are accepted": func(t *testing.T) {
		input := `{"protocol":"HTTP/1.0","method":"GET","path":"/"}`
		stdout, _, exitCode := httpwireWithInput(t, []byte(input), "encode", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string([]byte{
			0, 0, 0, 1,
			0, 0, 0, 3, 'G', 'E', 'T',
			0, 0, 0, 1, '/',
		}))
	},

	"the frame is written to the output file": func(t *testing.T) {
		path := writeFile(t, "request.yaml", []byte(requestYAML))
		output := filepath.Join(t.TempDir(), "request.bin")

		stdout, _, exitCode := httpwire(t, "encode", "-o", output, path)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, "")

		b, err := os.ReadFile(output)
		assert.OK(t, err)
		assert.EqualAll(t, b, requestFrame)
	},

	"a header list is encoded to a header-only frame": func(t *testing.T) {
		input := "- name: A\n  value: \"1\"\n- name: B\n  value: \"\"\n"
		stdout, _, exitCode := httpwireWithInput(t, []byte(input), "encode", "--headers", "-")
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stdout, string([]byte{
			0, 0, 0, 1, 'A', 0, 0, 0, 1, '1',
			0, 0, 0, 1, 'B', 0, 0, 0, 0,
		}))
	},

	"a request without protocol version cannot be encoded": func(t *testing.T) {
		stdout, stderr, exitCode := httpwireWithInput(t, []byte("method: GET\n"), "encode", "-")
		assert.Equal(t, exitCode, 1)
		assert.Equal(t, stdout, "")
		assert.HasPrefix(t, stderr, "ERR: httpwire encode: ")
	},

	"unknown fields in the request document are errors": func(t *testing.T) {
		_, stderr, exitCode := httpwireWithInput(t, []byte("protocol: HTTP/1.1\nbody: hello\n"), "encode", "-")
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: httpwire encode: malformed input document: ")
	},

	"frames larger than the configured limit cannot be encoded": func(t *testing.T) {
		config := writeFile(t, "config.yaml", []byte("frame:\n  maxSize: 16\ncache:\n  location: null\n"))
		path := writeFile(t, "request.yaml", []byte(requestYAML))

		_, stderr, exitCode := httpwire(t, "encode", "-c", config, path)
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: httpwire encode: ")
	},

	"the input is required": func(t *testing.T) {
		_, stderr, exitCode := httpwire(t, "encode")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "httpwire encode: missing input")
	},
}
