package ogg

// The Ogg checksum is a CRC-32 with polynomial 0x04C11DB7, no reflection,
// zero initial value and no final xor. hash/crc32 only implements the
// reflected form.
var crcTable = func() [256]uint32 {
	const poly = uint32(0x04C11DB7)
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}()

func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// Checksum computes the page checksum of page. The checksum field must
// already be zero.
func Checksum(page []byte) uint32 {
	return crcUpdate(0, page)
}

// VerifyChecksum reports whether the checksum stored in page matches its
// contents.
func VerifyChecksum(page []byte) bool {
	if len(page) < HeaderSize {
		return false
	}
	var zero [4]byte
	crc := crcUpdate(0, page[:checksumOffset])
	crc = crcUpdate(crc, zero[:])
	crc = crcUpdate(crc, page[checksumOffset+4:])
	return crc == le32(page[checksumOffset:])
}
