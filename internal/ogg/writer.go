package ogg

import (
	"encoding/binary"
	"time"

	"github.com/glizzus/opusmux/internal/audio"
	"github.com/glizzus/opusmux/internal/span"
)

// State is the bookkeeping of one logical stream.
type State struct {
	// PageCount is the sequence number of the next page.
	PageCount       uint32
	GranulePosition uint64
	SerialNumber    uint32
}

func NewState(serial uint32) *State {
	return &State{SerialNumber: serial}
}

// OpusWriter writes the pages of one stream into a fixed buffer. It is not
// safe for concurrent use.
type OpusWriter struct {
	state *State
	w     *span.Writer
}

// NewOpusWriter writes pages for state into buf.
func NewOpusWriter(state *State, buf []byte) *OpusWriter {
	return &OpusWriter{state: state, w: span.NewWriter(buf)}
}

func (ow *OpusWriter) State() *State {
	return ow.state
}

// Bytes returns the pages written since the last Reset.
func (ow *OpusWriter) Bytes() []byte {
	return ow.w.Written()
}

// Remaining returns the free space in the buffer.
func (ow *OpusWriter) Remaining() int {
	return ow.w.Remaining()
}

// Reset empties the buffer once its pages have been flushed.
func (ow *OpusWriter) Reset() {
	ow.w.Reset()
}

// WriteHead writes the beginning of stream page carrying the OpusHead.
func (ow *OpusWriter) WriteHead(head OpusHead) bool {
	ok, _ := ow.writePage(BeginOfStream, 0, head.Encode())
	return ok
}

// WriteTags writes the page carrying the OpusTags.
func (ow *OpusWriter) WriteTags(tags OpusTags) bool {
	ok, err := ow.writePage(0, 0, tags.Encode())
	return ok && err == nil
}

// WriteFrames writes frames as one page. The granule position advances by
// the total duration of the frames. When hasNext is false the page ends the
// stream.
func (ow *OpusWriter) WriteFrames(frames []audio.Frame, hasNext bool) (bool, error) {
	var duration time.Duration
	packets := make([][]byte, len(frames))
	for i, f := range frames {
		duration += f.Duration
		packets[i] = f.Data
	}

	var typ HeaderType
	if !hasNext {
		typ |= EndOfStream
	}
	return ow.writePage(typ, ow.state.GranulePosition+Samples(duration), packets...)
}

// PageSize returns the encoded size of a page holding the given packets.
func PageSize(packets ...[]byte) int {
	size := HeaderSize
	for _, p := range packets {
		size += SegmentCount(len(p)) + len(p)
	}
	return size
}

func (ow *OpusWriter) writePage(typ HeaderType, granule uint64, packets ...[]byte) (bool, error) {
	sizes := make([]int, len(packets))
	for i, p := range packets {
		sizes[i] = len(p)
	}
	table := BuildSegmentTable(sizes...)
	if len(table) > MaxSegments {
		return false, ErrTooManySegments
	}
	if ow.w.Remaining() < PageSize(packets...) {
		return false, nil
	}

	start := ow.w.Position()
	ow.w.PutBytes([]byte(CapturePattern))
	ow.w.PutByte(0)
	ow.w.PutByte(byte(typ))
	ow.w.PutUint64(granule, binary.LittleEndian)
	ow.w.PutUint32(ow.state.SerialNumber, binary.LittleEndian)
	ow.w.PutUint32(ow.state.PageCount, binary.LittleEndian)
	checksum, _ := ow.w.Reserve(4)
	ow.w.PutByte(byte(len(table)))
	ow.w.PutBytes(table)
	for _, p := range packets {
		ow.w.PutBytes(p)
	}

	page := ow.w.Written()[start:]
	ow.w.PutUint32At(checksum, Checksum(page), binary.LittleEndian)

	ow.state.PageCount++
	ow.state.GranulePosition = granule
	return true, nil
}
