package span

import (
	"encoding/binary"

	"github.com/glizzus/opusmux/internal/ebml"
)

// Writer writes sequentially into a fixed byte slice. Earlier positions can
// be overwritten with the *At methods without moving the cursor.
type Writer struct {
	buf []byte
	pos int
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

func (w *Writer) Position() int {
	return w.pos
}

func (w *Writer) Remaining() int {
	return len(w.buf) - w.pos
}

// Written returns the bytes emitted so far. The slice aliases the buffer.
func (w *Writer) Written() []byte {
	return w.buf[:w.pos]
}

// Reset rewinds the cursor to the start of the buffer.
func (w *Writer) Reset() {
	w.pos = 0
}

// Truncate moves the cursor back to pos, discarding what was written after
// it. Positions outside the written range are ignored.
func (w *Writer) Truncate(pos int) {
	if pos >= 0 && pos <= w.pos {
		w.pos = pos
	}
}

func (w *Writer) PutByte(b byte) bool {
	if w.Remaining() < 1 {
		return false
	}
	w.buf[w.pos] = b
	w.pos++
	return true
}

func (w *Writer) PutBytes(b []byte) bool {
	if w.Remaining() < len(b) {
		return false
	}
	w.pos += copy(w.buf[w.pos:], b)
	return true
}

func (w *Writer) PutUint16(v uint16, order binary.ByteOrder) bool {
	if w.Remaining() < 2 {
		return false
	}
	order.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
	return true
}

func (w *Writer) PutInt16(v int16, order binary.ByteOrder) bool {
	return w.PutUint16(uint16(v), order)
}

func (w *Writer) PutUint32(v uint32, order binary.ByteOrder) bool {
	if w.Remaining() < 4 {
		return false
	}
	order.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
	return true
}

func (w *Writer) PutUint64(v uint64, order binary.ByteOrder) bool {
	if w.Remaining() < 8 {
		return false
	}
	order.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
	return true
}

// PutUint32At overwrites four already written bytes at pos.
func (w *Writer) PutUint32At(pos int, v uint32, order binary.ByteOrder) bool {
	if pos < 0 || pos+4 > w.pos {
		return false
	}
	order.PutUint32(w.buf[pos:], v)
	return true
}

// Reserve skips n zeroed bytes and returns the position of the slot so it
// can be filled in later.
func (w *Writer) Reserve(n int) (int, bool) {
	if n < 0 || w.Remaining() < n {
		return 0, false
	}
	start := w.pos
	clear(w.buf[start : start+n])
	w.pos += n
	return start, true
}

// PutSize writes v as a size VInt. The error is set only when v cannot be
// encoded at all.
func (w *Writer) PutSize(v uint64) (bool, error) {
	b, err := ebml.EncodeSize(v)
	if err != nil {
		return false, err
	}
	return w.PutBytes(b), nil
}

func (w *Writer) PutID(id uint32) bool {
	return w.PutBytes(ebml.EncodeID(id))
}
