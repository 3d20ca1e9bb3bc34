// Package ogg writes Opus packets as an Ogg Opus stream (RFC 7845) into
// caller supplied buffers.
//
// An OpusWriter never grows its buffer. Every page write checks that the
// whole page fits first and reports false otherwise, leaving the buffer and
// the stream State as they were, so the caller can flush or enlarge the
// buffer and retry the same write.
package ogg
