package httpmsg

// Pseudo-header names carried in the header list of HTTP/2 requests.
const (
	PseudoMethod    = ":method"
	PseudoScheme    = ":scheme"
	PseudoAuthority = ":authority"
	PseudoPath      = ":path"
)

// Request is an HTTP request message.
//
// There are two kinds of requests: HTTP/1.x requests created by NewRequest
// store their method and path as fields, while HTTP/2 requests created by
// NewHTTP2Request store them as pseudo-headers in the header list. The
// protocol version never changes after creation.
//
// A request owns the input stream attached to it and releases it when closed
// or when another stream replaces it.
type Request struct {
	version Version
	method  string
	path    string
	headers Headers
	body    InputStream
}

// NewRequest creates an HTTP/1.x request. The version is HTTP10 if requested,
// HTTP11 otherwise.
func NewRequest(version Version) *Request {
	if version != HTTP10 {
		version = HTTP11
	}
	return &Request{version: version}
}

// NewHTTP2Request creates an HTTP/2 request.
func NewHTTP2Request() *Request {
	return &Request{version: HTTP2}
}

func (r *Request) Version() Version {
	return r.version
}

func (r *Request) Method() string {
	if r.version == HTTP2 {
		method, _ := r.headers.Get(PseudoMethod)
		return method
	}
	return r.method
}

func (r *Request) SetMethod(method string) {
	if r.version == HTTP2 {
		r.headers.Set(PseudoMethod, method)
	} else {
		r.method = method
	}
}

func (r *Request) Path() string {
	if r.version == HTTP2 {
		path, _ := r.headers.Get(PseudoPath)
		return path
	}
	return r.path
}

func (r *Request) SetPath(path string) {
	if r.version == HTTP2 {
		r.headers.Set(PseudoPath, path)
	} else {
		r.path = path
	}
}

// Headers returns the header list of r, which may be modified in place.
func (r *Request) Headers() *Headers {
	return &r.headers
}

// Body returns the input stream attached to r, or nil.
func (r *Request) Body() InputStream {
	return r.body
}

// SetBody attaches body to r. The request acquires its own reference to the
// stream; callers handing off ownership release theirs afterwards.
func (r *Request) SetBody(body InputStream) {
	if body != nil {
		body.Retain()
	}
	if r.body != nil {
		r.body.Release()
	}
	r.body = body
}

// Close releases the input stream attached to r. The request remains usable
// but has no body after Close.
func (r *Request) Close() error {
	r.SetBody(nil)
	return nil
}
