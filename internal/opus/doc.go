// Package opus reads and writes Opus frame files.
//
// A frame file is a minimal binary format: concatenated length-prefixed
// frames ([uint16 LE length][opus bytes]). No headers, no metadata. The
// transcoder writes them next to the Ogg output so recordings can be
// replayed into a voice connection without demuxing again.
package opus
