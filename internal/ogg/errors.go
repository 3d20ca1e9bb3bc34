package ogg

import "errors"

var (
	// ErrTooManySegments is returned when the packets of one page need more
	// than MaxSegments lacing values.
	ErrTooManySegments = errors.New("ogg: packets need more than 255 segments")

	// ErrInvalidPage reports a page without the capture pattern, with an
	// unknown version or cut short.
	ErrInvalidPage = errors.New("ogg: invalid page")

	// ErrBadChecksum reports a page whose checksum does not match.
	ErrBadChecksum = errors.New("ogg: checksum mismatch")

	// ErrInvalidHeader reports a malformed OpusHead packet.
	ErrInvalidHeader = errors.New("ogg: invalid OpusHead")
)
