// Package httpformat is the text representation of requests and header lists
// read and printed by the httpwire command.
package httpformat

import (
	"fmt"
	"strings"

	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

type Header struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// HeaderList is an ordered list of header fields.
type HeaderList []Header

func MakeHeaderList(h *httpmsg.Headers) HeaderList {
	list := make(HeaderList, h.Len())
	for i := range list {
		header := h.At(i)
		list[i] = Header{Name: header.Name, Value: header.Value}
	}
	return list
}

// Headers converts l to a header list of the message model.
func (l HeaderList) Headers() *httpmsg.Headers {
	h := httpmsg.NewHeaders()
	for _, header := range l {
		h.Add(header.Name, header.Value)
	}
	return h
}

// String returns the header fields formatted one per line, as they would
// appear in an HTTP/1 message.
func (l HeaderList) String() string {
	b := new(strings.Builder)
	l.writeTo(b)
	return b.String()
}

func (l HeaderList) writeTo(b *strings.Builder) {
	for _, h := range l {
		fmt.Fprintf(b, "%s: %s\n", h.Name, h.Value)
	}
}

// Request is the text representation of a request. For HTTP/2 requests, the
// method and path are carried by pseudo-headers; when Method or Path are set
// they replace the pseudo-header values.
type Request struct {
	Proto  httpmsg.Version `json:"protocol"         yaml:"protocol"`
	Method string          `json:"method,omitempty" yaml:"method,omitempty"`
	Path   string          `json:"path,omitempty"   yaml:"path,omitempty"`
	Header HeaderList      `json:"header,omitempty" yaml:"header,omitempty"`
}

func MakeRequest(r *httpmsg.Request) Request {
	req := Request{
		Proto:  r.Version(),
		Header: MakeHeaderList(r.Headers()),
	}
	if r.Version() != httpmsg.HTTP2 {
		req.Method, req.Path = r.Method(), r.Path()
	}
	return req
}

// NewRequest converts r to a request of the message model. The protocol
// version must be set.
func (r *Request) NewRequest() (*httpmsg.Request, error) {
	var req *httpmsg.Request
	switch r.Proto {
	case httpmsg.HTTP10, httpmsg.HTTP11:
		req = httpmsg.NewRequest(r.Proto)
	case httpmsg.HTTP2:
		req = httpmsg.NewHTTP2Request()
	default:
		return nil, fmt.Errorf("%w: missing or unknown protocol version: %s", httpmsg.ErrInvalidArgument, r.Proto)
	}

	h := req.Headers()
	for _, header := range r.Header {
		h.Add(header.Name, header.Value)
	}
	if r.Proto != httpmsg.HTTP2 || r.Method != "" {
		req.SetMethod(r.Method)
	}
	if r.Proto != httpmsg.HTTP2 || r.Path != "" {
		req.SetPath(r.Path)
	}
	return req, nil
}

// String returns the request line followed by the header fields.
func (r Request) String() string {
	method, path := r.Method, r.Path
	if r.Proto == httpmsg.HTTP2 {
		for _, h := range r.Header {
			switch {
			case h.Name == httpmsg.PseudoMethod && method == "":
				method = h.Value
			case h.Name == httpmsg.PseudoPath && path == "":
				path = h.Value
			}
		}
	}
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s %s %s\n", method, path, r.Proto)
	r.Header.writeTo(b)
	return b.String()
}
