package httpmsg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/net/http/httpguts"
)

// Validate checks that r is well-formed enough to be sent by net/http: the
// method is a token, the path is non-empty and free of spaces and control
// characters, and header fields are valid. Pseudo-headers are only accepted on
// HTTP/2 requests.
func (r *Request) Validate() error {
	method := r.Method()
	if method == "" || strings.IndexFunc(method, isNotToken) >= 0 {
		return fmt.Errorf("%w: invalid method: %q", ErrInvalidArgument, method)
	}
	path := r.Path()
	if path == "" || strings.IndexFunc(path, isSpaceOrControl) >= 0 {
		return fmt.Errorf("%w: invalid path: %q", ErrInvalidArgument, path)
	}
	for i, h := range r.headers.list {
		name := h.Name
		if h.IsPseudo() {
			if r.version != HTTP2 {
				return fmt.Errorf("%w: pseudo-header %q in %s request", ErrInvalidArgument, name, r.version)
			}
			name = name[1:]
		}
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: invalid name of header %d: %q", ErrInvalidArgument, i, h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return fmt.Errorf("%w: invalid value of header %q", ErrInvalidArgument, h.Name)
		}
	}
	return nil
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

func isSpaceOrControl(r rune) bool {
	return r <= ' ' || r == 0x7f
}

// ToHTTP converts r to a net/http request targeting base, which provides the
// scheme and host when the request path is not an absolute URL.
//
// The body of the returned request reads from the input stream attached to r,
// and GetBody rewinds it. The stream must remain attached to r for as long as
// the returned request is in use.
func ToHTTP(ctx context.Context, r *Request, base *url.URL) (*http.Request, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	ref, err := url.Parse(r.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	target := ref
	if base != nil {
		target = base.ResolveReference(ref)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method(), target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}

	switch r.version {
	case HTTP10:
		req.Proto, req.ProtoMajor, req.ProtoMinor = "HTTP/1.0", 1, 0
	case HTTP2:
		req.Proto, req.ProtoMajor, req.ProtoMinor = "HTTP/2.0", 2, 0
	}

	for _, h := range r.headers.list {
		switch {
		case strings.EqualFold(h.Name, PseudoAuthority), strings.EqualFold(h.Name, "Host"):
			req.Host = h.Value
		case h.IsPseudo():
		default:
			req.Header.Add(h.Name, h.Value)
		}
	}

	if body := r.body; body != nil {
		length, err := body.Length()
		switch {
		case err == nil:
			req.ContentLength = length
		case body.Status().EndOfStream:
			req.ContentLength = 0
		default:
			req.ContentLength = -1
		}
		if req.ContentLength == 0 {
			req.Body = http.NoBody
		} else {
			req.Body = NewBodyReader(body)
		}
		req.GetBody = func() (io.ReadCloser, error) {
			if err := body.Seek(0, SeekStart); err != nil {
				return nil, err
			}
			return NewBodyReader(body), nil
		}
	}
	return req, nil
}

// FromHTTP converts the method, target and headers of req to a Request. The
// body of req is not carried over.
//
// Since net/http does not preserve the order of header fields, headers are
// added in lexical order of their canonical names, after the Host header.
func FromHTTP(req *http.Request) *Request {
	host := req.Host
	if host == "" && req.URL != nil {
		host = req.URL.Host
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	path := "/"
	if req.URL != nil {
		path = req.URL.RequestURI()
	}

	var r *Request
	switch {
	case req.ProtoMajor == 2:
		scheme := "https"
		if req.URL != nil && req.URL.Scheme != "" {
			scheme = req.URL.Scheme
		}
		r = NewHTTP2Request()
		r.headers.Add(PseudoMethod, method)
		r.headers.Add(PseudoScheme, scheme)
		r.headers.Add(PseudoAuthority, host)
		r.headers.Add(PseudoPath, path)
	case req.ProtoMajor == 1 && req.ProtoMinor == 0:
		r = NewRequest(HTTP10)
	default:
		r = NewRequest(HTTP11)
	}

	if r.version != HTTP2 {
		r.method, r.path = method, path
		if host != "" {
			r.headers.Add("Host", host)
		}
	}

	names := maps.Keys(req.Header)
	slices.Sort(names)
	for _, name := range names {
		for _, value := range req.Header[name] {
			r.headers.Add(name, value)
		}
	}
	return r
}
