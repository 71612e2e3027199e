// Package httpwire implements the binary frame format used to marshal HTTP
// requests and header lists across a runtime boundary.
//
// All integers are unsigned 32 bits big-endian. Byte strings are length
// prefixed (LP): a 32 bits length followed by that many bytes.
//
//	request frame := version:u32 method:LP path:LP header*
//	header frame  := header*
//	header        := name:LP value:LP
//
// HTTP/2 requests carry their method and path as pseudo-headers, the method
// and path fields of their frames are always empty.
package httpwire

import (
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

const lengthSize = 4

// Limits constrains the size of encoded frames.
type Limits struct {
	// Maximum size of an encoded frame in bytes, zero means no limit.
	MaxFrameSize int
}

// Frame is the decoded content of a request frame.
type Frame struct {
	Version httpmsg.Version
	Method  string
	Path    string
	Headers []httpmsg.Header
}
