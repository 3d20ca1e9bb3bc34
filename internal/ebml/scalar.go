package ebml

import (
	"bytes"
	"math"
)

// Uint decodes a big-endian unsigned integer element body of 0 to 8 bytes.
func Uint(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, Errorf("decode uint", "%d byte body exceeds 8 bytes", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// Int decodes a big-endian two's complement integer element body.
func Int(b []byte) (int64, error) {
	u, err := Uint(b)
	if err != nil {
		return 0, err
	}
	if len(b) == 0 || len(b) == 8 {
		return int64(u), nil
	}
	shift := 64 - 8*uint(len(b))
	return int64(u<<shift) >> shift, nil
}

// Float decodes an IEEE 754 element body, 4 or 8 bytes long. An empty body
// decodes to 0.
func Float(b []byte) (float64, error) {
	switch len(b) {
	case 0:
		return 0, nil
	case 4:
		u, _ := Uint(b)
		return float64(math.Float32frombits(uint32(u))), nil
	case 8:
		u, _ := Uint(b)
		return math.Float64frombits(u), nil
	default:
		return 0, Errorf("decode float", "invalid float length %d", len(b))
	}
}

// String decodes an ASCII or UTF-8 element body, dropping NUL padding.
func String(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
