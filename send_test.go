package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stealthrocket/httpwire/internal/assert"
	"github.com/stealthrocket/httpwire/internal/wasmtest"
)

func echoServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Length", fmt.Sprint(r.ContentLength))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "%s %s %s", r.Host, r.URL.Path, b)
	}))
	t.Cleanup(server.Close)
	return server
}

const postYAML = `
protocol: HTTP/1.1
method: POST
path: /upload
header:
  - name: Host
    value: example.com
`

func encodeRequest(t *testing.T, document string) string {
	t.Helper()
	stdout, stderr, exitCode := httpwireWithInput(t, []byte(document), "encode", "-")
	if exitCode != 0 {
		t.Fatalf("encoding request: %s", stderr)
	}
	return writeFile(t, "request.bin", []byte(stdout))
}

var sendTests = tests{
	"a request without body is sent to the base URL": func(t *testing.T) {
		server := echoServer(t)
		frame := writeFile(t, "request.bin", requestFrame)

		stdout, stderr, exitCode := httpwire(t, "send", "--url", server.URL, frame)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")
		assert.HasPrefix(t, stdout, "HTTP/1.1 202 Accepted\n")
		assert.True(t, strings.Contains(stdout, "X-Method: GET\n"))
		assert.True(t, strings.HasSuffix(stdout, "\n\nx /a "))
	},

	"the request body is read from a file": func(t *testing.T) {
		server := echoServer(t)
		frame := encodeRequest(t, postYAML)
		body := writeFile(t, "body.txt", []byte("file content"))

		stdout, stderr, exitCode := httpwire(t, "send", "-u", server.URL, "--body", body, frame)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")
		assert.True(t, strings.Contains(stdout, "X-Length: 12\n"))
		assert.True(t, strings.HasSuffix(stdout, "example.com /upload file content"))
	},

	"the request body is produced by a webassembly module": func(t *testing.T) {
		server := echoServer(t)
		frame := encodeRequest(t, postYAML)
		module := writeFile(t, "body.wasm", wasmtest.Producer{Body: []byte("guest content")}.Assemble())

		stdout, stderr, exitCode := httpwire(t, "send", "-u", server.URL, "--body-wasm", module, frame)
		assert.Equal(t, exitCode, 0)
		assert.Equal(t, stderr, "")
		assert.True(t, strings.Contains(stdout, "X-Length: 13\n"))
		assert.True(t, strings.HasSuffix(stdout, "example.com /upload guest content"))
	},

	"a webassembly module failing to produce the body causes an error": func(t *testing.T) {
		server := echoServer(t)
		frame := encodeRequest(t, postYAML)
		module := writeFile(t, "body.wasm", wasmtest.Producer{TrapLength: true, TrapSend: true}.Assemble())

		_, stderr, exitCode := httpwire(t, "send", "-u", server.URL, "--body-wasm", module, frame)
		assert.Equal(t, exitCode, 1)
		assert.HasPrefix(t, stderr, "ERR: httpwire send: ")
	},

	"the base URL is required": func(t *testing.T) {
		_, stderr, exitCode := httpwire(t, "send", "request.bin")
		assert.Equal(t, exitCode, 2)
		assert.HasPrefix(t, stderr, "httpwire send: missing base URL")
	},

	"the body options are mutually exclusive": func(t *testing.T) {
		_, _, exitCode := httpwire(t, "send", "-u", "http://localhost", "--body", "a", "--body-wasm", "b", "request.bin")
		assert.Equal(t, exitCode, 2)
	},
}
