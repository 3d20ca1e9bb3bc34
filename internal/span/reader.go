// Package span provides forward-only cursors over a fixed byte slice.
//
// Neither cursor panics on short buffers. A Reader reports ok=false when not
// enough bytes remain, and a Writer reports false when a write does not fit,
// leaving its buffer and position untouched.
package span

import (
	"encoding/binary"

	"github.com/glizzus/opusmux/internal/ebml"
)

// Reader reads sequentially from a byte slice.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) Byte() (byte, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	b := r.buf[r.pos]
	r.pos++
	return b, true
}

// Int16 reads a big-endian signed 16-bit integer.
func (r *Reader) Int16() (int16, bool) {
	if r.Remaining() < 2 {
		return 0, false
	}
	v := int16(binary.BigEndian.Uint16(r.buf[r.pos:]))
	r.pos += 2
	return v, true
}

// VInt reads a size VInt. It returns ok=false without consuming anything when
// the VInt is cut short, and an error when the leading byte is invalid.
func (r *Reader) VInt() (ebml.VInt, bool, error) {
	return r.vint(ebml.DecodeVInt)
}

// ID reads an element ID.
func (r *Reader) ID() (ebml.VInt, bool, error) {
	return r.vint(ebml.DecodeID)
}

func (r *Reader) vint(decode func([]byte) (ebml.VInt, int, error)) (ebml.VInt, bool, error) {
	rest := r.buf[r.pos:]
	if len(rest) == 0 {
		return ebml.VInt{}, false, nil
	}
	n, err := ebml.VIntLength(rest[0])
	if err != nil {
		return ebml.VInt{}, false, err
	}
	if len(rest) < n {
		return ebml.VInt{}, false, nil
	}
	v, n, err := decode(rest)
	if err != nil {
		return ebml.VInt{}, false, err
	}
	r.pos += n
	return v, true, nil
}

// Bytes returns the next n bytes without copying them.
func (r *Reader) Bytes(n int) ([]byte, bool) {
	if n < 0 || r.Remaining() < n {
		return nil, false
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, true
}

// Rest returns all unread bytes and moves to the end.
func (r *Reader) Rest() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}
