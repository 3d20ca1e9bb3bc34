package ogg

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// OpusHeadSize is the size of an OpusHead packet with channel mapping
	// family 0.
	OpusHeadSize = 19

	// VendorString identifies this muxer in the OpusTags packet.
	VendorString = "opusmux"
	// OpusTagsSize is the size of the OpusTags packet written by WriteTags.
	OpusTagsSize = 8 + 4 + len(VendorString) + 4

	// SampleRate is the rate granule positions are counted in, whatever
	// the input rate of the stream.
	SampleRate = 48000
)

const (
	opusHeadMagic = "OpusHead"
	opusTagsMagic = "OpusTags"
)

// OpusHead is the identification header of an Ogg Opus stream.
type OpusHead struct {
	Version         uint8
	Channels        uint8
	PreSkip         uint16
	InputSampleRate uint32
	// OutputGain is in Q7.8 dB.
	OutputGain    int16
	MappingFamily uint8
}

// NewOpusHead returns a mapping family 0 header.
func NewOpusHead(channels uint8, preSkip uint16, inputSampleRate uint32) OpusHead {
	return OpusHead{
		Version:         1,
		Channels:        channels,
		PreSkip:         preSkip,
		InputSampleRate: inputSampleRate,
	}
}

func (h OpusHead) Encode() []byte {
	b := make([]byte, OpusHeadSize)
	copy(b, opusHeadMagic)
	b[8] = h.Version
	b[9] = h.Channels
	binary.LittleEndian.PutUint16(b[10:], h.PreSkip)
	binary.LittleEndian.PutUint32(b[12:], h.InputSampleRate)
	binary.LittleEndian.PutUint16(b[16:], uint16(h.OutputGain))
	b[18] = h.MappingFamily
	return b
}

// ParseOpusHead decodes an OpusHead packet, such as the CodecPrivate of a
// WebM Opus track. Only mapping family 0 is supported.
func ParseOpusHead(b []byte) (OpusHead, error) {
	if len(b) < OpusHeadSize || string(b[:8]) != opusHeadMagic {
		return OpusHead{}, ErrInvalidHeader
	}
	h := OpusHead{
		Version:         b[8],
		Channels:        b[9],
		PreSkip:         binary.LittleEndian.Uint16(b[10:]),
		InputSampleRate: binary.LittleEndian.Uint32(b[12:]),
		OutputGain:      int16(binary.LittleEndian.Uint16(b[16:])),
		MappingFamily:   b[18],
	}
	if h.Version&0xF0 != 0 {
		return OpusHead{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, h.Version)
	}
	if h.Channels == 0 {
		return OpusHead{}, fmt.Errorf("%w: zero channels", ErrInvalidHeader)
	}
	if h.MappingFamily != 0 {
		return OpusHead{}, fmt.Errorf("%w: unsupported mapping family %d", ErrInvalidHeader, h.MappingFamily)
	}
	return h, nil
}

// OpusTags is the comment header. It never carries user comments.
type OpusTags struct {
	// Vendor defaults to VendorString.
	Vendor string
}

func (t OpusTags) vendor() string {
	if t.Vendor == "" {
		return VendorString
	}
	return t.Vendor
}

// Size returns the encoded packet length.
func (t OpusTags) Size() int {
	return 8 + 4 + len(t.vendor()) + 4
}

func (t OpusTags) Encode() []byte {
	vendor := t.vendor()
	b := make([]byte, t.Size())
	copy(b, opusTagsMagic)
	binary.LittleEndian.PutUint32(b[8:], uint32(len(vendor)))
	copy(b[12:], vendor)
	// The user comment count stays zero.
	return b
}

// Samples converts a duration to a 48 kHz sample count.
func Samples(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d) * SampleRate / uint64(time.Second)
}
