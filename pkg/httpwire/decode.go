package httpwire

import (
	"encoding/binary"
	"fmt"

	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

// ReadVersion returns the protocol version declared at the start of a request
// frame.
func ReadVersion(frame []byte) (httpmsg.Version, error) {
	r := reader{b: frame}
	v, err := r.readUint32("version")
	return httpmsg.Version(v), err
}

// ParseRequest decodes a request frame. The returned strings do not alias the
// frame. Frames declaring HTTP/2 must have empty method and path fields.
func ParseRequest(frame []byte) (Frame, error) {
	r := reader{b: frame}

	version, err := r.readUint32("version")
	if err != nil {
		return Frame{}, err
	}
	f := Frame{Version: httpmsg.Version(version)}

	if f.Method, err = r.readField("method"); err != nil {
		return Frame{}, err
	}
	if f.Path, err = r.readField("path"); err != nil {
		return Frame{}, err
	}
	if f.Version == httpmsg.HTTP2 && (f.Method != "" || f.Path != "") {
		return Frame{}, fmt.Errorf("%w: %s frame must have empty method and path", httpmsg.ErrInvalidArgument, f.Version)
	}

	if f.Headers, err = r.readHeaders(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// ParseHeaders decodes a header frame. The headers are returned in the order
// they appear in the frame.
func ParseHeaders(frame []byte) ([]httpmsg.Header, error) {
	r := reader{b: frame}
	return r.readHeaders()
}

// DecodeRequest decodes a request frame into r. The version of the frame must
// match the version of r. On error, r is left unmodified.
func DecodeRequest(frame []byte, r *httpmsg.Request) error {
	version, err := ReadVersion(frame)
	if err != nil {
		return err
	}
	if version != r.Version() {
		return fmt.Errorf("%w: frame version %s does not match %s request", httpmsg.ErrInvalidArgument, version, r.Version())
	}
	f, err := ParseRequest(frame)
	if err != nil {
		return err
	}
	f.apply(r)
	return nil
}

// DecodeHeaders decodes a header frame and adds its headers to h. On error, h
// is left unmodified.
func DecodeHeaders(frame []byte, h *httpmsg.Headers) error {
	headers, err := ParseHeaders(frame)
	if err != nil {
		return err
	}
	for _, header := range headers {
		h.Add(header.Name, header.Value)
	}
	return nil
}

func (f *Frame) apply(r *httpmsg.Request) {
	if f.Version != httpmsg.HTTP2 {
		r.SetMethod(f.Method)
		r.SetPath(f.Path)
	}
	h := r.Headers()
	for _, header := range f.Headers {
		h.Add(header.Name, header.Value)
	}
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

func (r *reader) readUint32(field string) (uint32, error) {
	if r.remaining() < lengthSize {
		return 0, fmt.Errorf("%w: truncated %s at offset %d: %d bytes remaining", httpmsg.ErrInvalidArgument, field, r.off, r.remaining())
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += lengthSize
	return v, nil
}

func (r *reader) readField(field string) (string, error) {
	n, err := r.readUint32(field + " length")
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.remaining()) {
		return "", fmt.Errorf("%w: %s length %d at offset %d exceeds %d remaining bytes", httpmsg.ErrInvalidArgument, field, n, r.off-lengthSize, r.remaining())
	}
	s := string(r.b[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *reader) readHeaders() ([]httpmsg.Header, error) {
	var headers []httpmsg.Header
	for r.remaining() > 0 {
		name, err := r.readField("header name")
		if err != nil {
			return nil, err
		}
		value, err := r.readField("header value")
		if err != nil {
			return nil, err
		}
		headers = append(headers, httpmsg.Header{Name: name, Value: value})
	}
	return headers, nil
}
