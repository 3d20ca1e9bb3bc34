// Package audio holds the values passed between the demuxer, the players
// and the muxers.
package audio

import "time"

// FrameDuration is the duration of every Opus packet produced by the
// recorders this module handles.
const FrameDuration = 20 * time.Millisecond

// Frame is one Opus packet with its position in the stream.
type Frame struct {
	Data []byte
	// Offset is the time since the start of the stream.
	Offset   time.Duration
	Duration time.Duration
}

// Format describes the audio track a frame sequence was taken from.
type Format struct {
	TrackNumber  uint64
	CodecID      string
	Channels     int
	SampleRate   float64
	BitDepth     int
	CodecDelay   time.Duration
	SeekPreRoll  time.Duration
	CodecPrivate []byte
}

// IsOpus reports whether the track carries Opus packets.
func (f Format) IsOpus() bool {
	return f.CodecID == "A_OPUS"
}
