// Package httpbridge builds request objects from wire frames received from a
// foreign runtime, and encodes request objects back to frames.
package httpbridge

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stealthrocket/httpwire/internal/buffer"
	"github.com/stealthrocket/httpwire/pkg/bodystream"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
	"github.com/stealthrocket/httpwire/pkg/httpwire"
)

// Bridge converts between wire frames and requests. The zero value is ready
// to use, and a Bridge is safe for concurrent use.
type Bridge struct {
	// Logger receives debug events on decode failures. Nil disables logging.
	Logger *zerolog.Logger
	// Limits constrains the frames produced by the Encode methods.
	Limits httpwire.Limits

	buffers buffer.Pool
}

var defaultBridge Bridge

// BuildFromWire calls Bridge.BuildFromWire on a default bridge.
func BuildFromWire(frame []byte, host bodystream.Host, producer bodystream.Producer) (*httpmsg.Request, error) {
	return defaultBridge.BuildFromWire(frame, host, producer)
}

// ApplyWireToExisting calls Bridge.ApplyWireToExisting on a default bridge.
func ApplyWireToExisting(frame []byte, host bodystream.Host, producer bodystream.Producer, req *httpmsg.Request) error {
	return defaultBridge.ApplyWireToExisting(frame, host, producer, req)
}

// EncodeToWire calls Bridge.EncodeToWire on a default bridge.
func EncodeToWire(req *httpmsg.Request) ([]byte, error) {
	return defaultBridge.EncodeToWire(req)
}

// HeadersFromWire calls Bridge.HeadersFromWire on a default bridge.
func HeadersFromWire(frame []byte) (*httpmsg.Headers, error) {
	return defaultBridge.HeadersFromWire(frame)
}

// EncodeHeadersToWire calls Bridge.EncodeHeadersToWire on a default bridge.
func EncodeHeadersToWire(headers *httpmsg.Headers) ([]byte, error) {
	return defaultBridge.EncodeHeadersToWire(headers)
}

// BuildFromWire creates a request of the version declared by frame and
// decodes the frame into it. When producer is not nil, a body stream reading
// from it is attached to the request, which becomes its only owner.
//
// On error no request is returned.
func (b *Bridge) BuildFromWire(frame []byte, host bodystream.Host, producer bodystream.Producer) (*httpmsg.Request, error) {
	version, err := httpwire.ReadVersion(frame)
	if err != nil {
		return nil, b.decodeError(frame, err)
	}

	var req *httpmsg.Request
	if version == httpmsg.HTTP2 {
		req = httpmsg.NewHTTP2Request()
	} else {
		req = httpmsg.NewRequest(version)
	}

	if err := httpwire.DecodeRequest(frame, req); err != nil {
		req.Close()
		return nil, b.decodeError(frame, err)
	}
	if err := b.attachBody(req, host, producer); err != nil {
		req.Close()
		return nil, err
	}
	return req, nil
}

// ApplyWireToExisting clears the headers of req, then decodes frame into it.
// The version of the frame must match the version of req. When producer is
// not nil and decoding succeeded, a body stream reading from it replaces the
// body of req.
//
// The headers of req are cleared even if the call fails.
func (b *Bridge) ApplyWireToExisting(frame []byte, host bodystream.Host, producer bodystream.Producer, req *httpmsg.Request) error {
	req.Headers().Clear()

	if err := httpwire.DecodeRequest(frame, req); err != nil {
		return b.decodeError(frame, err)
	}
	return b.attachBody(req, host, producer)
}

// EncodeToWire returns the request frame of req.
func (b *Bridge) EncodeToWire(req *httpmsg.Request) ([]byte, error) {
	buf := b.buffers.Get(b.Limits.MaxFrameSize)
	defer buffer.Release(&buf, &b.buffers)

	data, err := httpwire.AppendRequest(buf.Data, req, b.Limits)
	if err != nil {
		return nil, err
	}
	buf.Data = data
	return clone(data), nil
}

// HeadersFromWire decodes a header-only frame into a new header list. On
// error no headers are returned.
func (b *Bridge) HeadersFromWire(frame []byte) (*httpmsg.Headers, error) {
	headers, err := httpwire.ParseHeaders(frame)
	if err != nil {
		return nil, b.decodeError(frame, err)
	}
	return httpmsg.NewHeaders(headers...), nil
}

// EncodeHeadersToWire returns the header-only frame of headers.
func (b *Bridge) EncodeHeadersToWire(headers *httpmsg.Headers) ([]byte, error) {
	buf := b.buffers.Get(b.Limits.MaxFrameSize)
	defer buffer.Release(&buf, &b.buffers)

	data, err := httpwire.AppendHeaders(buf.Data, headers.All(), b.Limits)
	if err != nil {
		return nil, err
	}
	buf.Data = data
	return clone(data), nil
}

func (b *Bridge) attachBody(req *httpmsg.Request, host bodystream.Host, producer bodystream.Producer) error {
	if producer == nil {
		return nil
	}
	var opts []bodystream.Option
	if b.Logger != nil {
		opts = append(opts, bodystream.WithLogger(b.Logger))
	}
	stream, err := bodystream.New(host, producer, opts...)
	if err != nil {
		return fmt.Errorf("httpbridge: attaching request body: %w", err)
	}
	req.SetBody(stream)
	stream.Release()
	return nil
}

func (b *Bridge) decodeError(frame []byte, err error) error {
	if b.Logger != nil {
		b.Logger.Debug().Err(err).Int("size", len(frame)).Msg("decoding wire frame")
	}
	return fmt.Errorf("httpbridge: %w", err)
}

func clone(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}
