package httpmsg

import (
	"fmt"
	"io"
)

// SeekBasis is the origin of a seek operation on an InputStream.
type SeekBasis int

const (
	SeekStart SeekBasis = io.SeekStart
	SeekEnd   SeekBasis = io.SeekEnd
)

func (b SeekBasis) String() string {
	switch b {
	case SeekStart:
		return "start"
	case SeekEnd:
		return "end"
	default:
		return fmt.Sprintf("SeekBasis(%d)", int(b))
	}
}

// StreamStatus is the state reported by InputStream.Status.
type StreamStatus struct {
	EndOfStream bool
	Valid       bool
}

// InputStream is the pull-based body source that the HTTP engine reads request
// bodies from. Implementations are reference counted: the last call to
// Release frees the resources held by the stream.
//
// Streams are not safe for concurrent use; the engine serializes calls for a
// given request.
type InputStream interface {
	// Read appends bytes to dst, filling at most the spare capacity between
	// len(dst) and cap(dst), and returns the extended slice. Reaching the end
	// of the stream is not an error: it is reported by Status.
	Read(dst []byte) ([]byte, error)
	// Seek moves the read position of the stream.
	Seek(offset int64, basis SeekBasis) error
	// Status never fails.
	Status() StreamStatus
	// Length returns the total length of the body.
	Length() (int64, error)

	Retain()
	Release()
}

const maxConsecutiveEmptyReads = 100

// NewBodyReader returns an io.ReadCloser reading from stream. The reader holds
// a reference on the stream, released by Close.
func NewBodyReader(stream InputStream) io.ReadCloser {
	stream.Retain()
	return &bodyReader{stream: stream}
}

type bodyReader struct {
	stream InputStream
}

func (r *bodyReader) Read(p []byte) (int, error) {
	if r.stream == nil {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		return 0, nil
	}
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		b, err := r.stream.Read(p[:0:len(p)])
		if err != nil {
			return 0, err
		}
		if len(b) > 0 {
			return len(b), nil
		}
		if r.stream.Status().EndOfStream {
			return 0, io.EOF
		}
	}
	return 0, io.ErrNoProgress
}

func (r *bodyReader) Close() error {
	if r.stream != nil {
		r.stream.Release()
		r.stream = nil
	}
	return nil
}
