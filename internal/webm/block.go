package webm

import (
	"encoding/binary"

	"github.com/glizzus/opusmux/internal/ebml"
	"github.com/glizzus/opusmux/internal/span"
)

// BlockKind selects the element a Block is stored under.
type BlockKind uint8

const (
	BlockKindSimple BlockKind = iota
	BlockKindBlock
	BlockKindVirtual
	BlockKindEncrypted
	BlockKindAdditional
)

// ID returns the element ID of the kind.
func (k BlockKind) ID() ElementID {
	switch k {
	case BlockKindBlock:
		return IDBlock
	case BlockKindVirtual:
		return IDBlockVirtual
	case BlockKindEncrypted:
		return IDEncryptedBlock
	case BlockKindAdditional:
		return IDBlockAdditional
	default:
		return IDSimpleBlock
	}
}

// Lacing is the frame packing mode of a block.
type Lacing uint8

const (
	LacingNone Lacing = iota
	LacingXiph
	LacingFixed
	LacingEBML
)

func (l Lacing) String() string {
	switch l {
	case LacingNone:
		return "none"
	case LacingXiph:
		return "xiph"
	case LacingFixed:
		return "fixed"
	case LacingEBML:
		return "ebml"
	default:
		return "unknown"
	}
}

const (
	FlagKeyFrame    byte = 0x80
	FlagInvisible   byte = 0x08
	FlagLacingMask  byte = 0x06
	FlagDiscardable byte = 0x01
)

// blockHeaderSize is the timecode and flags that follow the track number.
const blockHeaderSize = 3

// ErrUnsupportedLacing is returned when writing a laced block.
var ErrUnsupportedLacing error = &ebml.FormatError{Op: "write block", Reason: "laced blocks are not supported"}

// Block is the payload of a SimpleBlock or any of its sibling elements.
type Block struct {
	Kind        BlockKind
	TrackNumber uint64
	// TimeCode is relative to the enclosing cluster.
	TimeCode int16
	Flags    byte
	// NumFrames and FrameSizes are only set for laced blocks.
	NumFrames  int
	FrameSizes []int
	Data       []byte
}

func (b *Block) Lacing() Lacing {
	return Lacing((b.Flags & FlagLacingMask) >> 1)
}

// IsKeyFrame is only meaningful for SimpleBlocks.
func (b *Block) IsKeyFrame() bool {
	return b.Flags&FlagKeyFrame != 0
}

func (b *Block) IsInvisible() bool {
	return b.Flags&FlagInvisible != 0
}

// IsDiscardable is only meaningful for SimpleBlocks.
func (b *Block) IsDiscardable() bool {
	return b.Flags&FlagDiscardable != 0
}

// Frames splits Data into the laced frames. An unlaced block has one frame.
func (b *Block) Frames() [][]byte {
	if b.Lacing() == LacingNone || len(b.FrameSizes) == 0 {
		return [][]byte{b.Data}
	}
	frames := make([][]byte, 0, len(b.FrameSizes))
	rest := b.Data
	for _, size := range b.FrameSizes {
		frames = append(frames, rest[:size:size])
		rest = rest[size:]
	}
	return frames
}

// Size returns the number of body bytes Write emits after the element
// header.
func (b *Block) Size() int {
	return ebml.SizeLength(b.TrackNumber) + blockHeaderSize + len(b.Data)
}

// EncodedSize returns the total number of bytes Write emits.
func (b *Block) EncodedSize() int {
	size := b.Size()
	return ebml.IDLength(uint32(b.Kind.ID())) + ebml.SizeLength(uint64(size)) + size
}

// Write encodes the block as a complete element. It returns false without
// writing anything when w cannot hold EncodedSize bytes.
func (b *Block) Write(w *span.Writer) (bool, error) {
	if b.Lacing() != LacingNone {
		return false, ErrUnsupportedLacing
	}
	if ebml.SizeLength(b.TrackNumber) == 0 {
		return false, ebml.Errorf("write block", "track number %d exceeds vint capacity", b.TrackNumber)
	}
	if w.Remaining() < b.EncodedSize() {
		return false, nil
	}

	w.PutID(uint32(b.Kind.ID()))
	if _, err := w.PutSize(uint64(b.Size())); err != nil {
		return false, err
	}
	if _, err := w.PutSize(b.TrackNumber); err != nil {
		return false, err
	}
	w.PutInt16(b.TimeCode, binary.BigEndian)
	w.PutByte(b.Flags)
	w.PutBytes(b.Data)
	return true, nil
}

// ParseBlock decodes the body of a block element. Data aliases body.
func ParseBlock(kind BlockKind, body []byte) (Block, error) {
	r := span.NewReader(body)

	track, ok, err := r.VInt()
	if err != nil {
		return Block{}, err
	}
	if !ok || r.Remaining() < blockHeaderSize {
		return Block{}, ebml.Errorf("parse block", "%d byte body is shorter than the block header", len(body))
	}
	timecode, _ := r.Int16()
	flags, _ := r.Byte()

	b := Block{
		Kind:        kind,
		TrackNumber: track.Value,
		TimeCode:    timecode,
		Flags:       flags,
	}
	if b.Lacing() != LacingNone {
		sizes, err := parseLacing(r, b.Lacing())
		if err != nil {
			return Block{}, err
		}
		b.NumFrames = len(sizes)
		b.FrameSizes = sizes
	}
	b.Data = r.Rest()
	return b, nil
}

func parseLacing(r *span.Reader, lacing Lacing) ([]int, error) {
	count, ok := r.Byte()
	if !ok {
		return nil, ebml.Errorf("parse lacing", "missing frame count")
	}
	n := int(count) + 1
	sizes := make([]int, n)

	total := 0
	switch lacing {
	case LacingXiph:
		for i := 0; i < n-1; i++ {
			for {
				c, ok := r.Byte()
				if !ok {
					return nil, ebml.Errorf("parse lacing", "truncated xiph size table")
				}
				sizes[i] += int(c)
				if c != 0xFF {
					break
				}
			}
			total += sizes[i]
		}
	case LacingFixed:
		if r.Remaining()%n != 0 {
			return nil, ebml.Errorf("parse lacing", "%d bytes do not split into %d fixed frames", r.Remaining(), n)
		}
		for i := range sizes {
			sizes[i] = r.Remaining() / n
		}
		return sizes, nil
	case LacingEBML:
		prev := int64(0)
		for i := 0; i < n-1; i++ {
			v, ok, err := r.VInt()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ebml.Errorf("parse lacing", "truncated ebml size table")
			}
			size := int64(v.Value)
			if i > 0 {
				// Later sizes are signed differences from the previous one.
				size = prev + int64(v.Value) - (1<<(7*uint(v.Length)-1) - 1)
			}
			if size < 0 {
				return nil, ebml.Errorf("parse lacing", "negative frame size %d", size)
			}
			sizes[i] = int(size)
			prev = size
			total += sizes[i]
		}
	}

	if total > r.Remaining() {
		return nil, ebml.Errorf("parse lacing", "frame sizes %d exceed %d payload bytes", total, r.Remaining())
	}
	sizes[n-1] = r.Remaining() - total
	return sizes, nil
}
