package bodystream

import (
	"errors"
	"fmt"
	"io"
)

// Producer is the callback-driven source of a request body.
type Producer interface {
	// ResetPosition rewinds the producer to the beginning of the body. It
	// returns false on failure.
	ResetPosition(env *Env) bool
	// SendOutgoingBody writes up to region.Remaining() bytes into region,
	// advancing its position by the number of bytes written. It returns true
	// if there is no more data after this call.
	SendOutgoingBody(env *Env, region *Region) bool
	// Length returns the declared total length of the body.
	Length(env *Env) int64
}

// Region is the writable memory handed to Producer.SendOutgoingBody. The
// position marks the end of the bytes written so far.
type Region struct {
	buf []byte
	pos int
}

func NewRegion(buf []byte) *Region {
	return &Region{buf: buf}
}

func (r *Region) Cap() int       { return len(r.buf) }
func (r *Region) Position() int  { return r.pos }
func (r *Region) Remaining() int { return len(r.buf) - r.pos }

// Available returns the unwritten part of the region. Producers that write to
// it directly must then advance the position with SetPosition.
func (r *Region) Available() []byte {
	return r.buf[r.pos:]
}

// SetPosition moves the position of the region. The method panics if pos is
// out of range.
func (r *Region) SetPosition(pos int) {
	if pos < 0 || pos > len(r.buf) {
		panic(fmt.Sprintf("bodystream: region position out of range: %d/%d", pos, len(r.buf)))
	}
	r.pos = pos
}

// Write copies p into the region. When the region is too small, the bytes
// that fit are written and io.ErrShortWrite is returned.
func (r *Region) Write(p []byte) (int, error) {
	n := copy(r.buf[r.pos:], p)
	r.pos += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// ReaderProducer returns a Producer reading the body from r. The length of
// the body is determined by seeking to the end of r.
func ReaderProducer(r io.ReadSeeker) Producer {
	return &readerProducer{r: r}
}

type readerProducer struct {
	r io.ReadSeeker
}

func (p *readerProducer) ResetPosition(env *Env) bool {
	_, err := p.r.Seek(0, io.SeekStart)
	return err == nil
}

func (p *readerProducer) SendOutgoingBody(env *Env, region *Region) bool {
	n, err := io.ReadFull(p.r, region.Available())
	region.SetPosition(region.Position() + n)
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	default:
		env.Throw(err)
		return false
	}
}

func (p *readerProducer) Length(env *Env) int64 {
	offset, err := p.r.Seek(0, io.SeekCurrent)
	if err != nil {
		env.Throw(err)
		return 0
	}
	length, err := p.r.Seek(0, io.SeekEnd)
	if err != nil {
		env.Throw(err)
		return 0
	}
	if _, err := p.r.Seek(offset, io.SeekStart); err != nil {
		env.Throw(err)
		return 0
	}
	return length
}
