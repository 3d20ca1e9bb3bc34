// Package webm reads Opus audio out of WebM streams as recorded by browser
// MediaRecorders.
//
// The Demuxer accepts the stream in chunks of any size and returns the audio
// frames that each chunk completes. Elements are described by a static
// registry (see Lookup) and decoded through a table of per-ID functions, so
// unknown elements and elements of no interest are skipped by length.
//
// Block holds the payload framing shared by SimpleBlock, Block,
// BlockVirtual, EncryptedBlock and BlockAdditional. The variants differ only
// in the element ID they are written under, which BlockKind selects.
package webm
