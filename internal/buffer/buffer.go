package buffer

import (
	"encoding/binary"
	"errors"
	"sync"
)

// DefaultSize is the initial capacity of buffers allocated by a Pool.
const DefaultSize = 1024

// ErrTooLarge is returned by Reserve when growing the buffer would exceed its
// limit.
var ErrTooLarge = errors.New("buffer: too large")

// Buffer is a growable byte buffer. Writes must be preceded by a successful
// call to Reserve covering their size.
type Buffer struct {
	Data []byte
	// Maximum length of Data, zero means no limit.
	Limit int
}

func (buf *Buffer) Len() int {
	return len(buf.Data)
}

// Reserve guarantees that at least n more bytes can be appended to the buffer
// without reallocating. The capacity grows geometrically.
func (buf *Buffer) Reserve(n int) error {
	size := len(buf.Data) + n
	if n < 0 || size < 0 {
		return ErrTooLarge
	}
	if buf.Limit > 0 && size > buf.Limit {
		return ErrTooLarge
	}
	if size <= cap(buf.Data) {
		return nil
	}
	capacity := 2 * cap(buf.Data)
	if capacity < size {
		capacity = size
	}
	if capacity < DefaultSize {
		capacity = DefaultSize
	}
	if buf.Limit > 0 && capacity > buf.Limit {
		capacity = buf.Limit
	}
	data := make([]byte, len(buf.Data), capacity)
	copy(data, buf.Data)
	buf.Data = data
	return nil
}

func (buf *Buffer) WriteUint32(v uint32) {
	buf.Data = binary.BigEndian.AppendUint32(buf.Data, v)
}

func (buf *Buffer) WriteString(s string) {
	buf.Data = append(buf.Data, s...)
}

func (buf *Buffer) Reset() {
	buf.Data = buf.Data[:0]
}

type Pool struct{ pool sync.Pool }

func (p *Pool) Get(limit int) *Buffer {
	b, _ := p.pool.Get().(*Buffer)
	if b == nil {
		b = New(DefaultSize)
	}
	b.Reset()
	b.Limit = limit
	return b
}

func (p *Pool) Put(b *Buffer) {
	if b != nil {
		p.pool.Put(b)
	}
}

func New(size int) *Buffer {
	return &Buffer{Data: make([]byte, 0, Align(size, DefaultSize))}
}

func Release(buf **Buffer, pool *Pool) {
	if b := *buf; b != nil {
		*buf = nil
		pool.Put(b)
	}
}

func Align(size, to int) int {
	return ((size + (to - 1)) / to) * to
}
