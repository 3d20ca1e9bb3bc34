package opus

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// FrameWriter writes length-prefixed Opus frames to an io.Writer.
type FrameWriter struct {
	w      io.Writer
	frames int
}

// NewFrameWriter returns a new FrameWriter that writes to w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one frame. Frames longer than 65535 bytes cannot be
// represented.
func (f *FrameWriter) WriteFrame(frame []byte) error {
	if len(frame) > math.MaxUint16 {
		return fmt.Errorf("frame of %d bytes exceeds %d bytes", len(frame), math.MaxUint16)
	}

	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(frame)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := f.w.Write(frame); err != nil {
		return err
	}
	f.frames++
	return nil
}

// Frames returns the number of frames written.
func (f *FrameWriter) Frames() int {
	return f.frames
}
