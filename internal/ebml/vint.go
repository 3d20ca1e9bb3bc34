package ebml

import "math/bits"

// VIntKind tells an element size apart from an element ID. Both use the same
// wire encoding but different reserved patterns apply.
type VIntKind uint8

const (
	SizeVInt VIntKind = iota
	IDVInt
)

const (
	// MaxVIntLength is the longest VInt this package accepts.
	MaxVIntLength = 8
	// MaxIDLength is the longest element ID allowed by Matroska and WebM.
	MaxIDLength = 4
	// MaxSizeValue is the largest finite size that can be encoded. The next
	// value, 2^56-1, is the 8-byte unknown-size pattern.
	MaxSizeValue = 1<<56 - 2
)

// VInt is a decoded EBML variable-length integer.
type VInt struct {
	Kind VIntKind
	// Length is the encoded length in bytes (1-8).
	Length int
	// Value holds the data bits with the length marker removed.
	Value uint64
	// Encoded is the raw big-endian encoding, marker included.
	Encoded uint64
}

func dataMask(length int) uint64 {
	return 1<<(7*uint(length)) - 1
}

// IsUnknown reports whether v is a size whose data bits are all set, which
// marks a master element of unknown size.
func (v VInt) IsUnknown() bool {
	return v.Kind == SizeVInt && v.Value == dataMask(v.Length)
}

// IsReserved reports whether all data bits are set. For IDs this pattern is
// reserved and never names an element.
func (v VInt) IsReserved() bool {
	return v.Value == dataMask(v.Length)
}

// ID returns the element ID, which by convention keeps the marker bit.
func (v VInt) ID() uint32 {
	return uint32(v.Encoded)
}

// VIntLength returns the total encoded length announced by the first byte
// of a VInt.
func VIntLength(first byte) (int, error) {
	if first == 0 {
		return 0, Errorf("decode vint", "length class exceeds %d bytes", MaxVIntLength)
	}
	return bits.LeadingZeros8(first) + 1, nil
}

func decode(b []byte, kind VIntKind) (VInt, int, error) {
	if len(b) == 0 {
		return VInt{}, 0, Errorf("decode vint", "empty input")
	}
	n, err := VIntLength(b[0])
	if err != nil {
		return VInt{}, 0, err
	}
	if len(b) < n {
		return VInt{}, 0, Errorf("decode vint", "need %d bytes, have %d", n, len(b))
	}

	var encoded uint64
	for _, c := range b[:n] {
		encoded = encoded<<8 | uint64(c)
	}
	return VInt{
		Kind:    kind,
		Length:  n,
		Value:   encoded & dataMask(n),
		Encoded: encoded,
	}, n, nil
}

// DecodeVInt decodes a size VInt from the start of b and returns it with
// the number of bytes consumed.
func DecodeVInt(b []byte) (VInt, int, error) {
	return decode(b, SizeVInt)
}

// DecodeID decodes an element ID from the start of b.
func DecodeID(b []byte) (VInt, int, error) {
	v, n, err := decode(b, IDVInt)
	if err != nil {
		return VInt{}, 0, err
	}
	if n > MaxIDLength {
		return VInt{}, 0, Errorf("decode id", "%d byte element id exceeds %d bytes", n, MaxIDLength)
	}
	if v.IsReserved() {
		return VInt{}, 0, Errorf("decode id", "reserved element id %#x", v.Encoded)
	}
	return v, n, nil
}

// SizeLength returns the number of bytes EncodeSize uses for v, or 0 when v
// exceeds MaxSizeValue.
func SizeLength(v uint64) int {
	if v > MaxSizeValue {
		return 0
	}
	length := 1
	for v >= dataMask(length) {
		length++
	}
	return length
}

// EncodeSize encodes v in the shortest length class that does not collide
// with the unknown-size pattern.
func EncodeSize(v uint64) ([]byte, error) {
	length := SizeLength(v)
	if length == 0 {
		return nil, Errorf("encode size", "%d exceeds vint capacity", v)
	}
	return EncodeSizeWidth(v, length)
}

// EncodeSizeWidth encodes v using exactly width bytes.
func EncodeSizeWidth(v uint64, width int) ([]byte, error) {
	if width < 1 || width > MaxVIntLength {
		return nil, Errorf("encode size", "invalid width %d", width)
	}
	if v >= dataMask(width) {
		return nil, Errorf("encode size", "%d does not fit in %d bytes", v, width)
	}
	return putEncoded(v|1<<(7*uint(width)), width), nil
}

// UnknownSize returns the unknown-size marker of the given width.
func UnknownSize(width int) []byte {
	if width < 1 || width > MaxVIntLength {
		width = MaxVIntLength
	}
	return putEncoded(dataMask(width)|1<<(7*uint(width)), width)
}

// IDLength returns the encoded length of an element ID.
func IDLength(id uint32) int {
	n := 4 - bits.LeadingZeros32(id)/8
	if n < 1 {
		return 1
	}
	return n
}

// EncodeID returns the wire bytes of an element ID.
func EncodeID(id uint32) []byte {
	return putEncoded(uint64(id), IDLength(id))
}

func putEncoded(encoded uint64, width int) []byte {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(encoded)
		encoded >>= 8
	}
	return b
}
