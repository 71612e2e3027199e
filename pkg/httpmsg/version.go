package httpmsg

import (
	"encoding"
	"fmt"
	"strings"
)

// Version is the protocol version of a message. The numeric values are part of
// the wire format and must not change.
type Version uint32

const (
	VersionUnknown Version = iota
	HTTP10
	HTTP11
	HTTP2
)

func (v Version) String() string {
	switch v {
	case VersionUnknown:
		return "unknown"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2"
	default:
		return fmt.Sprintf("Version(%d)", uint32(v))
	}
}

// ParseVersion parses the text representation of a protocol version. The
// "HTTP/" prefix is optional.
func ParseVersion(s string) (Version, error) {
	switch strings.TrimPrefix(strings.ToUpper(s), "HTTP/") {
	case "1.0":
		return HTTP10, nil
	case "1.1":
		return HTTP11, nil
	case "2", "2.0":
		return HTTP2, nil
	default:
		return VersionUnknown, fmt.Errorf("%w: malformed protocol version: %q", ErrInvalidArgument, s)
	}
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	p, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

var (
	_ encoding.TextMarshaler   = Version(0)
	_ encoding.TextUnmarshaler = (*Version)(nil)
)
