package ebml_test

import (
	"testing"

	"github.com/glizzus/opusmux/internal/ebml"
)

func TestUint(t *testing.T) {
	table := []struct {
		input []byte
		want  uint64
	}{
		{input: nil, want: 0},
		{input: []byte{0x01}, want: 1},
		{input: []byte{0x0F, 0x42, 0x40}, want: 1_000_000},
		{input: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, want: 1<<64 - 1},
	}
	for _, tc := range table {
		got, err := ebml.Uint(tc.input)
		if err != nil {
			t.Fatalf("Uint(%x) returned error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("Uint(%x) = %d; want %d", tc.input, got, tc.want)
		}
	}

	if _, err := ebml.Uint(make([]byte, 9)); err == nil {
		t.Error("Uint of 9 bytes expected error")
	}
}

func TestInt(t *testing.T) {
	table := []struct {
		input []byte
		want  int64
	}{
		{input: []byte{0xFF}, want: -1},
		{input: []byte{0xFF, 0x38}, want: -200},
		{input: []byte{0x7F}, want: 127},
	}
	for _, tc := range table {
		got, err := ebml.Int(tc.input)
		if err != nil {
			t.Fatalf("Int(%x) returned error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("Int(%x) = %d; want %d", tc.input, got, tc.want)
		}
	}
}

func TestFloat(t *testing.T) {
	// 48000 as float32 and float64.
	f32 := []byte{0x47, 0x3B, 0x80, 0x00}
	f64 := []byte{0x40, 0xE7, 0x70, 0x00, 0x00, 0x00, 0x00, 0x00}

	for _, input := range [][]byte{f32, f64} {
		got, err := ebml.Float(input)
		if err != nil {
			t.Fatalf("Float(%x) returned error: %v", input, err)
		}
		if got != 48000 {
			t.Errorf("Float(%x) = %v; want 48000", input, got)
		}
	}

	if _, err := ebml.Float([]byte{1, 2, 3}); err == nil {
		t.Error("Float of 3 bytes expected error")
	}
}

func TestString(t *testing.T) {
	if got := ebml.String([]byte("A_OPUS\x00\x00")); got != "A_OPUS" {
		t.Errorf("String = %q; want %q", got, "A_OPUS")
	}
}
