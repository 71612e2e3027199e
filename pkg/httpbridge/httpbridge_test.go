package httpbridge_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stealthrocket/httpwire/internal/assert"
	"github.com/stealthrocket/httpwire/pkg/bodystream"
	"github.com/stealthrocket/httpwire/pkg/httpbridge"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
	"github.com/stealthrocket/httpwire/pkg/httpwire"
)

func TestBuildFromWire(t *testing.T) {
	frame := encode(t, httpmsg.HTTP11, "POST", "/submit", "Host", "example.com", "Content-Type", "text/plain")

	req, err := httpbridge.BuildFromWire(frame, nil, nil)
	assert.OK(t, err)
	defer req.Close()

	assert.Equal(t, req.Version(), httpmsg.HTTP11)
	assert.Equal(t, req.Method(), "POST")
	assert.Equal(t, req.Path(), "/submit")
	assert.EqualAll(t, req.Headers().All(), []httpmsg.Header{
		{Name: "Host", Value: "example.com"},
		{Name: "Content-Type", Value: "text/plain"},
	})
	assert.True(t, req.Body() == nil)
}

func TestBuildFromWireSelectsRequestKind(t *testing.T) {
	tests := []struct {
		scenario string
		frame    []byte
		version  httpmsg.Version
	}{
		{
			scenario: "HTTP/1.0",
			frame:    []byte{0, 0, 0, 1, 0, 0, 0, 3, 'G', 'E', 'T', 0, 0, 0, 1, '/'},
			version:  httpmsg.HTTP10,
		},
		{
			scenario: "HTTP/1.1",
			frame:    []byte{0, 0, 0, 2, 0, 0, 0, 3, 'G', 'E', 'T', 0, 0, 0, 1, '/'},
			version:  httpmsg.HTTP11,
		},
		{
			scenario: "HTTP/2",
			frame: []byte{
				0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0,
				0, 0, 0, 7, ':', 'm', 'e', 't', 'h', 'o', 'd', 0, 0, 0, 3, 'G', 'E', 'T',
			},
			version: httpmsg.HTTP2,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			req, err := httpbridge.BuildFromWire(test.frame, nil, nil)
			assert.OK(t, err)
			assert.Equal(t, req.Version(), test.version)
			assert.Equal(t, req.Method(), "GET")
		})
	}
}

func TestBuildFromWireRejectsUnknownVersion(t *testing.T) {
	frame := []byte{0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0}
	req, err := httpbridge.BuildFromWire(frame, nil, nil)
	assert.Error(t, err, httpmsg.ErrInvalidArgument)
	assert.True(t, req == nil)
}

func TestBuildFromWireWithBody(t *testing.T) {
	host := bodystream.NewLocalHost(context.Background())
	producer := bodystream.ReaderProducer(bytes.NewReader([]byte("payload")))
	frame := encode(t, httpmsg.HTTP11, "PUT", "/object")

	req, err := httpbridge.BuildFromWire(frame, host, producer)
	assert.OK(t, err)
	assert.Equal(t, host.Refs(), 1)

	body := req.Body()
	assert.False(t, body.Status().EndOfStream)
	b, err := body.Read(make([]byte, 0, 16))
	assert.OK(t, err)
	assert.Equal(t, string(b), "payload")

	// The request is the only owner of the stream.
	assert.OK(t, req.Close())
	assert.Equal(t, host.Refs(), 0)
}

func TestBuildFromWireFailureDoesNotLeakProducer(t *testing.T) {
	host := bodystream.NewLocalHost(context.Background())
	producer := bodystream.ReaderProducer(bytes.NewReader(nil))

	_, err := httpbridge.BuildFromWire([]byte{0, 0, 0, 2, 0, 0, 0, 9}, host, producer)
	assert.Error(t, err, httpmsg.ErrInvalidArgument)
	assert.Equal(t, host.Refs(), 0)
}

func TestBuildFromWireHostShutdown(t *testing.T) {
	host := bodystream.NewLocalHost(context.Background())
	host.Shutdown()
	producer := bodystream.ReaderProducer(bytes.NewReader(nil))

	_, err := httpbridge.BuildFromWire(encode(t, httpmsg.HTTP11, "GET", "/"), host, producer)
	assert.Error(t, err, httpmsg.ErrContextUnavailable)
}

func TestApplyWireToExisting(t *testing.T) {
	req := httpmsg.NewRequest(httpmsg.HTTP11)
	req.SetMethod("GET")
	req.SetPath("/old")
	req.Headers().Add("Old", "1")

	frame := encode(t, httpmsg.HTTP11, "POST", "/new", "New", "2")
	assert.OK(t, httpbridge.ApplyWireToExisting(frame, nil, nil, req))
	assert.Equal(t, req.Method(), "POST")
	assert.Equal(t, req.Path(), "/new")
	assert.EqualAll(t, req.Headers().All(), []httpmsg.Header{{Name: "New", Value: "2"}})
}

func TestApplyWireToExistingClearsHeadersOnFailure(t *testing.T) {
	tests := []struct {
		scenario string
		frame    []byte
	}{
		{
			scenario: "version mismatch",
			frame:    []byte{0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			scenario: "truncated header name",
			frame:    []byte{0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 'a', 'b', 'c'},
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			host := bodystream.NewLocalHost(context.Background())
			req := httpmsg.NewRequest(httpmsg.HTTP11)
			req.SetMethod("GET")
			req.Headers().Add("Keep", "me")

			producer := bodystream.ReaderProducer(bytes.NewReader(nil))
			err := httpbridge.ApplyWireToExisting(test.frame, host, producer, req)
			assert.Error(t, err, httpmsg.ErrInvalidArgument)
			assert.Equal(t, req.Headers().Len(), 0)
			assert.Equal(t, req.Method(), "GET")
			assert.True(t, req.Body() == nil)
			assert.Equal(t, host.Refs(), 0)
		})
	}
}

func TestApplyWireToExistingReplacesBody(t *testing.T) {
	host := bodystream.NewLocalHost(context.Background())
	req, err := httpbridge.BuildFromWire(encode(t, httpmsg.HTTP11, "GET", "/"), host,
		bodystream.ReaderProducer(bytes.NewReader([]byte("first"))))
	assert.OK(t, err)
	assert.Equal(t, host.Refs(), 1)

	err = httpbridge.ApplyWireToExisting(encode(t, httpmsg.HTTP11, "GET", "/"), host,
		bodystream.ReaderProducer(bytes.NewReader([]byte("second"))), req)
	assert.OK(t, err)
	assert.Equal(t, host.Refs(), 1)

	b, err := req.Body().Read(make([]byte, 0, 16))
	assert.OK(t, err)
	assert.Equal(t, string(b), "second")

	assert.OK(t, req.Close())
	assert.Equal(t, host.Refs(), 0)
}

func TestEncodeToWire(t *testing.T) {
	req := httpmsg.NewRequest(httpmsg.HTTP11)
	req.SetMethod("GET")
	req.SetPath("/a")
	req.Headers().Add("Host", "x")
	req.Headers().Add("X", "")

	frame, err := httpbridge.EncodeToWire(req)
	assert.OK(t, err)

	decoded, err := httpbridge.BuildFromWire(frame, nil, nil)
	assert.OK(t, err)
	assert.Equal(t, decoded.Version(), req.Version())
	assert.Equal(t, decoded.Method(), req.Method())
	assert.Equal(t, decoded.Path(), req.Path())
	assert.EqualAll(t, decoded.Headers().All(), req.Headers().All())
}

func TestEncodeToWireDoesNotShareBuffers(t *testing.T) {
	b := new(httpbridge.Bridge)
	first, err := b.EncodeToWire(request("GET", "/first"))
	assert.OK(t, err)
	firstCopy := append([]byte(nil), first...)

	_, err = b.EncodeToWire(request("DELETE", "/second"))
	assert.OK(t, err)
	assert.EqualAll(t, first, firstCopy)
}

func TestEncodeToWireLimit(t *testing.T) {
	b := &httpbridge.Bridge{Limits: httpwire.Limits{MaxFrameSize: 8}}
	_, err := b.EncodeToWire(request("GET", "/"))
	assert.Error(t, err, httpmsg.ErrAllocationFailure)
}

func TestHeadersFromWire(t *testing.T) {
	headers := httpmsg.NewHeaders(
		httpmsg.Header{Name: "Accept", Value: "*/*"},
		httpmsg.Header{Name: "Accept", Value: "text/html"},
		httpmsg.Header{Name: "", Value: ""},
	)

	frame, err := httpbridge.EncodeHeadersToWire(headers)
	assert.OK(t, err)

	decoded, err := httpbridge.HeadersFromWire(frame)
	assert.OK(t, err)
	assert.EqualAll(t, decoded.All(), headers.All())

	decoded, err = httpbridge.HeadersFromWire(frame[:len(frame)-1])
	assert.Error(t, err, httpmsg.ErrInvalidArgument)
	assert.True(t, decoded == nil)
}

func TestBridgeLogsDecodeFailures(t *testing.T) {
	output := new(bytes.Buffer)
	logger := zerolog.New(output).Level(zerolog.DebugLevel)
	b := &httpbridge.Bridge{Logger: &logger}

	_, err := b.BuildFromWire([]byte{0, 0}, nil, nil)
	assert.Error(t, err, httpmsg.ErrInvalidArgument)
	assert.True(t, bytes.Contains(output.Bytes(), []byte(`"size":2`)))
	assert.True(t, bytes.Contains(output.Bytes(), []byte("decoding wire frame")))
}

func request(method, path string) *httpmsg.Request {
	req := httpmsg.NewRequest(httpmsg.HTTP11)
	req.SetMethod(method)
	req.SetPath(path)
	return req
}

func encode(t *testing.T, version httpmsg.Version, method, path string, headers ...string) []byte {
	t.Helper()
	req := httpmsg.NewRequest(version)
	req.SetMethod(method)
	req.SetPath(path)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Headers().Add(headers[i], headers[i+1])
	}
	frame, err := httpwire.AppendRequest(nil, req, httpwire.Limits{})
	assert.OK(t, err)
	return frame
}
