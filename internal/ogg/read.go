package ogg

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	jogg "github.com/jonas747/ogg"
)

// ReadPackets reads every packet of an Ogg stream, headers included. A
// stream that stops mid page is treated as ended.
func ReadPackets(r io.Reader) ([][]byte, error) {
	decoder := jogg.NewPacketDecoder(jogg.NewDecoder(r))

	var packets [][]byte
	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return packets, nil
			}
			return packets, fmt.Errorf("ogg: reading packet %d: %w", len(packets), err)
		}
		packets = append(packets, bytes.Clone(packet))
	}
}
