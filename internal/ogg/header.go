package ogg

import (
	"encoding/binary"
	"fmt"
)

const (
	CapturePattern = "OggS"
	// HeaderSize is the fixed part of a page header, before the segment
	// table.
	HeaderSize = 27
	// MaxSegments is the largest segment table a page can carry.
	MaxSegments = 255
	// MaxPageSize is the size of a page with a full segment table of full
	// segments.
	MaxPageSize = HeaderSize + MaxSegments + MaxSegments*255

	checksumOffset = 22
)

// HeaderType holds the page flags.
type HeaderType byte

const (
	Continued     HeaderType = 0x01
	BeginOfStream HeaderType = 0x02
	EndOfStream   HeaderType = 0x04
)

// Header is a decoded page header.
type Header struct {
	Version            byte
	Type               HeaderType
	GranulePosition    uint64
	SerialNumber       uint32
	PageSequenceNumber uint32
	Checksum           uint32
	SegmentTable       []byte
}

// Size returns the encoded header length including the segment table.
func (h *Header) Size() int {
	return HeaderSize + len(h.SegmentTable)
}

// PayloadSize returns the number of body bytes the segment table describes.
func (h *Header) PayloadSize() int {
	n := 0
	for _, s := range h.SegmentTable {
		n += int(s)
	}
	return n
}

// PacketSizes splits the segment table into packet lengths. A trailing
// packet continued on the next page is not included.
func (h *Header) PacketSizes() []int {
	var sizes []int
	n := 0
	for _, s := range h.SegmentTable {
		n += int(s)
		if s < 255 {
			sizes = append(sizes, n)
			n = 0
		}
	}
	return sizes
}

// SegmentCount returns the number of lacing values a packet of n bytes
// needs. A packet whose length is a multiple of 255 ends with a zero.
func SegmentCount(n int) int {
	return n/255 + 1
}

// BuildSegmentTable lace-codes the given packet sizes.
func BuildSegmentTable(sizes ...int) []byte {
	count := 0
	for _, n := range sizes {
		count += SegmentCount(n)
	}
	table := make([]byte, 0, count)
	for _, n := range sizes {
		for ; n >= 255; n -= 255 {
			table = append(table, 255)
		}
		table = append(table, byte(n))
	}
	return table
}

func le32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// ParsePage decodes the page at the start of b and verifies its checksum.
// It returns the header and the total page length.
func ParsePage(b []byte) (Header, int, error) {
	if len(b) < HeaderSize || string(b[:4]) != CapturePattern {
		return Header{}, 0, ErrInvalidPage
	}
	h := Header{
		Version:            b[4],
		Type:               HeaderType(b[5]),
		GranulePosition:    binary.LittleEndian.Uint64(b[6:]),
		SerialNumber:       le32(b[14:]),
		PageSequenceNumber: le32(b[18:]),
		Checksum:           le32(b[checksumOffset:]),
	}
	if h.Version != 0 {
		return Header{}, 0, fmt.Errorf("%w: version %d", ErrInvalidPage, h.Version)
	}
	segments := int(b[26])
	if len(b) < HeaderSize+segments {
		return Header{}, 0, fmt.Errorf("%w: truncated segment table", ErrInvalidPage)
	}
	h.SegmentTable = b[HeaderSize : HeaderSize+segments : HeaderSize+segments]

	size := h.Size() + h.PayloadSize()
	if len(b) < size {
		return Header{}, 0, fmt.Errorf("%w: page of %d bytes truncated to %d", ErrInvalidPage, size, len(b))
	}
	if !VerifyChecksum(b[:size]) {
		return Header{}, 0, ErrBadChecksum
	}
	return h, size, nil
}

// ReadHeaders parses every page in b.
func ReadHeaders(b []byte) ([]Header, error) {
	var headers []Header
	for offset := 0; offset < len(b); {
		h, n, err := ParsePage(b[offset:])
		if err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}
		headers = append(headers, h)
		offset += n
	}
	return headers, nil
}
