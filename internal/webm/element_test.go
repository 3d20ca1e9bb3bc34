package webm_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/glizzus/opusmux/internal/ebml"
	"github.com/glizzus/opusmux/internal/span"
	"github.com/glizzus/opusmux/internal/webm"
)

// Helpers that assemble WebM fixtures element by element.

func element(id webm.ElementID, body ...[]byte) []byte {
	data := bytes.Join(body, nil)
	size, err := ebml.EncodeSize(uint64(len(data)))
	if err != nil {
		panic(err)
	}
	out := ebml.EncodeID(uint32(id))
	out = append(out, size...)
	return append(out, data...)
}

func unknownElement(id webm.ElementID, body ...[]byte) []byte {
	out := ebml.EncodeID(uint32(id))
	out = append(out, ebml.UnknownSize(8)...)
	return append(out, bytes.Join(body, nil)...)
}

func uintElement(id webm.ElementID, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	i := 0
	for i < 7 && b[i] == 0 {
		i++
	}
	return element(id, b[i:])
}

func stringElement(id webm.ElementID, s string) []byte {
	return element(id, []byte(s))
}

func floatElement(id webm.ElementID, f float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	return element(id, b[:])
}

func blockElement(t *testing.T, b webm.Block) []byte {
	t.Helper()
	w := span.NewWriter(make([]byte, b.EncodedSize()))
	ok, err := b.Write(w)
	if err != nil || !ok {
		t.Fatalf("writing fixture block: ok=%v err=%v", ok, err)
	}
	return w.Written()
}

func simpleBlock(t *testing.T, track uint64, timecode int16, data []byte) []byte {
	return blockElement(t, webm.Block{Kind: webm.BlockKindSimple, TrackNumber: track, TimeCode: timecode, Flags: webm.FlagKeyFrame, Data: data})
}

func ebmlHeader() []byte {
	return element(webm.IDEBML,
		uintElement(webm.IDEBMLVersion, 1),
		uintElement(webm.IDEBMLReadVersion, 1),
		uintElement(webm.IDEBMLMaxIDLength, 4),
		uintElement(webm.IDEBMLMaxSizeLength, 8),
		stringElement(webm.IDDocType, "webm"),
		uintElement(webm.IDDocTypeVersion, 4),
		uintElement(webm.IDDocTypeReadVersion, 2),
	)
}

var opusHead = []byte{
	'O', 'p', 'u', 's', 'H', 'e', 'a', 'd',
	1, 2, 0x38, 0x01, 0x80, 0xBB, 0x00, 0x00, 0x00, 0x00, 0,
}

func videoTrack() []byte {
	return element(webm.IDTrackEntry,
		uintElement(webm.IDTrackNumber, 1),
		uintElement(webm.IDTrackUID, 111),
		uintElement(webm.IDTrackType, 1),
		stringElement(webm.IDCodecID, "V_VP8"),
		element(webm.IDVideo, uintElement(0xB0, 640), uintElement(0xBA, 480)),
	)
}

func audioTrack(number uint64) []byte {
	return element(webm.IDTrackEntry,
		uintElement(webm.IDTrackNumber, number),
		uintElement(webm.IDTrackUID, 222),
		uintElement(webm.IDTrackType, webm.TrackTypeAudio),
		stringElement(webm.IDCodecID, "A_OPUS"),
		element(webm.IDCodecPrivate, opusHead),
		uintElement(webm.IDCodecDelay, 6_500_000),
		uintElement(webm.IDSeekPreRoll, 80_000_000),
		element(webm.IDAudio,
			floatElement(webm.IDSamplingFrequency, 48000),
			uintElement(webm.IDChannels, 2),
			uintElement(webm.IDBitDepth, 16),
		),
	)
}
