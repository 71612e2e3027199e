// Package wasmtest assembles small WebAssembly modules acting as request body
// producers, for use in tests.
package wasmtest

import (
	"fmt"
)

const (
	pageSize = 65536
	bodyBase = 16
)

// Producer describes a guest module producing Body. The module imports
// http_body.write and exports memory, body_send, body_reset and body_length.
type Producer struct {
	Body []byte
	// When set, body_reset reports a failure.
	FailReset bool
	// When set, body_send and body_length trap.
	TrapSend   bool
	TrapLength bool
}

// Assemble returns the binary encoding of the module.
func (p Producer) Assemble() []byte {
	if len(p.Body) > pageSize-bodyBase {
		panic(fmt.Sprintf("wasmtest: body of %d bytes does not fit in one page", len(p.Body)))
	}
	size := int64(len(p.Body))

	m := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	m = appendSection(m, 1, vec(
		[]byte{0x60, 2, i32, i32, 1, i32}, // 0: write
		[]byte{0x60, 1, i32, 1, i32},      // 1: body_send
		[]byte{0x60, 0, 1, i32},           // 2: body_reset
		[]byte{0x60, 0, 1, i64},           // 3: body_length
	))
	m = appendSection(m, 2, vec(
		concat(name("http_body"), name("write"), []byte{0x00, 0}),
	))
	m = appendSection(m, 3, vec([]byte{1}, []byte{2}, []byte{3}))
	m = appendSection(m, 5, vec([]byte{0x00, 1}))
	m = appendSection(m, 6, vec(
		concat([]byte{i32, 0x01}, i32Const(0), []byte{end}),
	))
	m = appendSection(m, 7, vec(
		concat(name("memory"), []byte{0x02, 0}),
		concat(name("body_send"), []byte{0x00, 1}),
		concat(name("body_reset"), []byte{0x00, 2}),
		concat(name("body_length"), []byte{0x00, 3}),
	))

	var send, reset, length []byte
	if p.TrapSend {
		send = []byte{unreachable}
	} else {
		send = concat(
			// n = size - pos
			i32Const(size), []byte{globalGet, 0, i32Sub, localSet, 1},
			// if cap < n { n = cap }
			[]byte{localGet, 0, localGet, 1, i32LtU, ifBlock, emptyBlock, localGet, 0, localSet, 1, end},
			// pos += write(base + pos, n)
			i32Const(bodyBase), []byte{globalGet, 0, i32Add, localGet, 1, call, 0},
			[]byte{globalGet, 0, i32Add, globalSet, 0},
			// return pos == size
			[]byte{globalGet, 0}, i32Const(size), []byte{i32Eq},
		)
	}
	if p.FailReset {
		reset = i32Const(0)
	} else {
		reset = concat(i32Const(0), []byte{globalSet, 0}, i32Const(1))
	}
	if p.TrapLength {
		length = []byte{unreachable}
	} else {
		length = i64Const(size)
	}
	m = appendSection(m, 10, vec(
		funcBody([]byte{1, 1, i32}, send),
		funcBody([]byte{0}, reset),
		funcBody([]byte{0}, length),
	))

	m = appendSection(m, 11, vec(
		concat([]byte{0x00}, i32Const(bodyBase), []byte{end}, uleb(uint64(len(p.Body))), p.Body),
	))
	return m
}

const (
	i32 = 0x7f
	i64 = 0x7e

	unreachable = 0x00
	ifBlock     = 0x04
	emptyBlock  = 0x40
	end         = 0x0b
	call        = 0x10
	localGet    = 0x20
	localSet    = 0x21
	globalGet   = 0x23
	globalSet   = 0x24
	i32Eq       = 0x46
	i32LtU      = 0x49
	i32Add      = 0x6a
	i32Sub      = 0x6b
)

func funcBody(locals, code []byte) []byte {
	b := concat(locals, code, []byte{end})
	return concat(uleb(uint64(len(b))), b)
}

func appendSection(m []byte, id byte, content []byte) []byte {
	m = append(m, id)
	m = append(m, uleb(uint64(len(content)))...)
	return append(m, content...)
}

func vec(items ...[]byte) []byte {
	b := uleb(uint64(len(items)))
	for _, item := range items {
		b = append(b, item...)
	}
	return b
}

func name(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, part := range parts {
		b = append(b, part...)
	}
	return b
}

func i32Const(v int64) []byte { return append([]byte{0x41}, sleb(v)...) }
func i64Const(v int64) []byte { return append([]byte{0x42}, sleb(v)...) }

func uleb(v uint64) []byte {
	var b []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
		} else {
			return append(b, c)
		}
	}
}

func sleb(v int64) []byte {
	var b []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}
