package generator

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
// This can be used to generate unique identifiers, lazily iterate, etc.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator is a generator that produces UUIDv4 strings.
// Transcode sessions use them as log correlation IDs.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// SerialGenerator produces random Ogg stream serial numbers.
type SerialGenerator struct{}

func (g *SerialGenerator) Next() (uint32, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return 0, err
	}
	// The first bytes of a v4 UUID are random.
	return binary.BigEndian.Uint32(id[:4]), nil
}

var _ Generator[uint32] = &SerialGenerator{}

// Fixed always returns the same value. It is meant for tests and for
// reproducible output.
type Fixed[T any] struct {
	Value T
}

func (g Fixed[T]) Next() (T, error) {
	return g.Value, nil
}
