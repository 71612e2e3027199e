package httpwire

import (
	"errors"
	"fmt"
	"math"

	"github.com/stealthrocket/httpwire/internal/buffer"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

// AppendRequest appends the request frame of r to dst and returns the extended
// buffer.
func AppendRequest(dst []byte, r *httpmsg.Request, limits Limits) ([]byte, error) {
	buf := buffer.Buffer{Data: dst, Limit: limits.MaxFrameSize}

	version := r.Version()
	method, path := "", ""
	if version != httpmsg.HTTP2 {
		method, path = r.Method(), r.Path()
	}
	if err := checkLength("method", method); err != nil {
		return nil, err
	}
	if err := checkLength("path", path); err != nil {
		return nil, err
	}
	if err := reserve(&buf, 3*lengthSize+len(method)+len(path)); err != nil {
		return nil, err
	}
	buf.WriteUint32(uint32(version))
	writeField(&buf, method)
	writeField(&buf, path)

	headers := r.Headers()
	for i, n := 0, headers.Len(); i < n; i++ {
		if err := writeHeader(&buf, headers.At(i)); err != nil {
			return nil, err
		}
	}
	return buf.Data, nil
}

// AppendHeaders appends the header frame of headers to dst and returns the
// extended buffer.
func AppendHeaders(dst []byte, headers []httpmsg.Header, limits Limits) ([]byte, error) {
	buf := buffer.Buffer{Data: dst, Limit: limits.MaxFrameSize}
	for _, h := range headers {
		if err := writeHeader(&buf, h); err != nil {
			return nil, err
		}
	}
	return buf.Data, nil
}

func writeHeader(buf *buffer.Buffer, h httpmsg.Header) error {
	if err := checkLength("header name", h.Name); err != nil {
		return err
	}
	if err := checkLength("header value", h.Value); err != nil {
		return err
	}
	if err := reserve(buf, 2*lengthSize+len(h.Name)+len(h.Value)); err != nil {
		return err
	}
	writeField(buf, h.Name)
	writeField(buf, h.Value)
	return nil
}

func writeField(buf *buffer.Buffer, s string) {
	buf.WriteUint32(uint32(len(s)))
	buf.WriteString(s)
}

func checkLength(field, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s of %d bytes cannot be encoded", httpmsg.ErrInvalidArgument, field, len(s))
	}
	return nil
}

func reserve(buf *buffer.Buffer, n int) error {
	if err := buf.Reserve(n); err != nil {
		if errors.Is(err, buffer.ErrTooLarge) {
			return fmt.Errorf("%w: frame exceeds the limit of %d bytes", httpmsg.ErrAllocationFailure, buf.Limit)
		}
		return err
	}
	return nil
}
