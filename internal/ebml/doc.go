// Package ebml implements the low-level pieces of the Extensible Binary Meta
// Language used by Matroska and WebM: variable-length integers for element
// IDs and sizes, and decoding of scalar element bodies.
//
// Element sizes and IDs share the same length-prefixed encoding, the number
// of leading zero bits in the first byte gives the total length (1 to 8
// bytes), but IDs keep their marker bit as part of their value while sizes
// do not.
package ebml
