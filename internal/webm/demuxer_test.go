package webm_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glizzus/opusmux/internal/audio"
	"github.com/glizzus/opusmux/internal/ebml"
	"github.com/glizzus/opusmux/internal/webm"
	"github.com/google/go-cmp/cmp"
)

func payload(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func segment(tracks []byte, children ...[]byte) []byte {
	body := append([][]byte{
		element(webm.IDInfo,
			uintElement(webm.IDTimecodeScale, 1_000_000),
			stringElement(webm.IDMuxingApp, "opusmux test"),
		),
		tracks,
	}, children...)
	return append(ebmlHeader(), unknownElement(webm.IDSegment, body...)...)
}

type recording struct {
	stream   []byte
	payloads [][]byte
	frames   []audio.Frame
}

func newRecording(t *testing.T, unknownClusters bool) recording {
	t.Helper()
	cluster := element
	if unknownClusters {
		cluster = unknownElement
	}

	p := [][]byte{payload(3, 1), payload(120, 2), payload(300, 3), payload(64, 4), payload(90, 5)}
	body := [][]byte{
		element(webm.IDSeekHead,
			element(webm.IDSeek,
				element(webm.IDSeekID, ebml.EncodeID(uint32(webm.IDInfo))),
				uintElement(webm.IDSeekPosition, 0x40),
			),
		),
		element(webm.IDVoid, make([]byte, 6)),
		element(webm.IDInfo,
			uintElement(webm.IDTimecodeScale, 1_000_000),
			stringElement(webm.IDMuxingApp, "opusmux test"),
			stringElement(webm.IDWritingApp, "opusmux test"),
		),
		element(webm.IDTracks, videoTrack(), audioTrack(2)),
		cluster(webm.IDCluster,
			uintElement(webm.IDTimecode, 0),
			simpleBlock(t, 2, 0, p[0]),
			simpleBlock(t, 1, 0, payload(500, 9)),
			element(webm.IDCRC32, []byte{1, 2, 3, 4}),
			simpleBlock(t, 2, 20, p[1]),
			simpleBlock(t, 2, 40, p[2]),
		),
		cluster(webm.IDCluster,
			uintElement(webm.IDTimecode, 60),
			simpleBlock(t, 2, 0, p[3]),
			element(webm.IDBlockGroup,
				blockElement(t, webm.Block{Kind: webm.BlockKindBlock, TrackNumber: 2, TimeCode: 20, Data: p[4]}),
				uintElement(webm.IDBlockDuration, 20),
			),
		),
		element(webm.IDCues, element(0xBB, uintElement(0xB3, 0))),
	}

	var frames []audio.Frame
	for i, data := range p {
		frames = append(frames, audio.Frame{
			Data:     data,
			Offset:   time.Duration(i) * 20 * time.Millisecond,
			Duration: audio.FrameDuration,
		})
	}

	return recording{
		stream:   append(ebmlHeader(), unknownElement(webm.IDSegment, body...)...),
		payloads: p,
		frames:   frames,
	}
}

func pushAll(t *testing.T, d *webm.Demuxer, stream []byte, chunk int) []audio.Frame {
	t.Helper()
	var frames []audio.Frame
	for len(stream) > 0 {
		n := min(chunk, len(stream))
		got, err := d.Push(stream[:n])
		if err != nil {
			t.Fatalf("Push returned error: %v", err)
		}
		frames = append(frames, got...)
		stream = stream[n:]
	}
	return frames
}

func TestDemuxerChunking(t *testing.T) {
	for _, unknown := range []bool{false, true} {
		rec := newRecording(t, unknown)
		for _, chunk := range []int{len(rec.stream), 1, 2, 7, 100, 4096} {
			t.Run(fmt.Sprintf("unknown=%v/chunk=%d", unknown, chunk), func(t *testing.T) {
				got := pushAll(t, webm.NewDemuxer(), rec.stream, chunk)
				if diff := cmp.Diff(rec.frames, got); diff != "" {
					t.Errorf("frames mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestDemuxerByteByByteMatchesWhole(t *testing.T) {
	rec := newRecording(t, true)

	whole := pushAll(t, webm.NewDemuxer(), rec.stream, len(rec.stream))
	single := pushAll(t, webm.NewDemuxer(), rec.stream, 1)
	if diff := cmp.Diff(whole, single); diff != "" {
		t.Errorf("byte by byte frames differ from single chunk (-whole +single):\n%s", diff)
	}
}

func TestDemuxerSizePreservation(t *testing.T) {
	rec := newRecording(t, false)

	want := 0
	for _, p := range rec.payloads {
		want += len(p)
	}
	got := 0
	for _, f := range pushAll(t, webm.NewDemuxer(), rec.stream, 13) {
		got += len(f.Data)
	}
	if got != want {
		t.Errorf("demuxed %d payload bytes; want %d", got, want)
	}
}

func TestDemuxerFormat(t *testing.T) {
	rec := newRecording(t, true)
	d := webm.NewDemuxer()
	if _, ok := d.Format(); ok {
		t.Fatal("Format() reported a track before any input")
	}
	pushAll(t, d, rec.stream, 64)

	got, ok := d.Format()
	if !ok {
		t.Fatal("Format() found no audio track")
	}
	want := audio.Format{
		TrackNumber:  2,
		CodecID:      "A_OPUS",
		Channels:     2,
		SampleRate:   48000,
		BitDepth:     16,
		CodecDelay:   6500 * time.Microsecond,
		SeekPreRoll:  80 * time.Millisecond,
		CodecPrivate: opusHead,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format() mismatch (-want +got):\n%s", diff)
	}
	if !got.IsOpus() {
		t.Error("IsOpus() = false for an A_OPUS track")
	}
	if n := len(d.Tracks()); n != 2 {
		t.Errorf("Tracks() returned %d entries; want 2", n)
	}
}

func TestDemuxerNoAudioTrack(t *testing.T) {
	stream := segment(element(webm.IDTracks, videoTrack()),
		element(webm.IDCluster,
			uintElement(webm.IDTimecode, 0),
			simpleBlock(t, 1, 0, payload(40, 1)),
			simpleBlock(t, 1, 33, payload(40, 2)),
		),
	)

	d := webm.NewDemuxer()
	frames := pushAll(t, d, stream, 5)
	if len(frames) != 0 {
		t.Errorf("got %d frames from a stream without audio; want 0", len(frames))
	}
	if _, ok := d.Format(); ok {
		t.Error("Format() reported a track for a stream without audio")
	}
}

func TestDemuxerWithAudioTrack(t *testing.T) {
	stream := segment(element(webm.IDTracks, audioTrack(2), audioTrack(3)),
		element(webm.IDCluster,
			uintElement(webm.IDTimecode, 0),
			simpleBlock(t, 2, 0, payload(10, 1)),
			simpleBlock(t, 3, 0, payload(11, 2)),
		),
	)

	frames := pushAll(t, webm.NewDemuxer(webm.WithAudioTrack(3)), stream, len(stream))
	if len(frames) != 1 || len(frames[0].Data) != 11 {
		t.Fatalf("got frames %v; want the single track 3 frame", frames)
	}
}

func TestDemuxerTimecodeScale(t *testing.T) {
	info := element(webm.IDInfo, uintElement(webm.IDTimecodeScale, 500_000))
	stream := append(ebmlHeader(), unknownElement(webm.IDSegment,
		info,
		element(webm.IDTracks, audioTrack(1)),
		element(webm.IDCluster,
			uintElement(webm.IDTimecode, 40),
			simpleBlock(t, 1, 20, payload(8, 1)),
		),
	)...)

	frames := pushAll(t, webm.NewDemuxer(webm.WithFrameDuration(10*time.Millisecond)), stream, 3)
	want := []audio.Frame{{Data: payload(8, 1), Offset: 30 * time.Millisecond, Duration: 10 * time.Millisecond}}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestDemuxerLacedBlock(t *testing.T) {
	data := payload(2+3+4, 1)
	laced := element(webm.IDSimpleBlock, []byte{0x81, 0x00, 0x00, 0x82, 0x02, 0x02, 0x03}, data)
	stream := segment(element(webm.IDTracks, audioTrack(1)),
		element(webm.IDCluster, uintElement(webm.IDTimecode, 100), laced),
	)

	frames := pushAll(t, webm.NewDemuxer(), stream, 1)
	want := []audio.Frame{
		{Data: data[:2], Offset: 100 * time.Millisecond, Duration: audio.FrameDuration},
		{Data: data[2:5], Offset: 120 * time.Millisecond, Duration: audio.FrameDuration},
		{Data: data[5:], Offset: 140 * time.Millisecond, Duration: audio.FrameDuration},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestDemuxerBuffersPartialElement(t *testing.T) {
	stream := segment(element(webm.IDTracks, audioTrack(1)),
		element(webm.IDCluster,
			uintElement(webm.IDTimecode, 0),
			simpleBlock(t, 1, 0, payload(200, 1)),
		),
	)

	d := webm.NewDemuxer()
	frames, err := d.Push(stream[:len(stream)-10])
	if err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("got %d frames from a partial block; want 0", len(frames))
	}
	if d.Buffered() == 0 {
		t.Error("Buffered() = 0 while a block is incomplete")
	}

	frames, err = d.Push(stream[len(stream)-10:])
	if err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if len(frames) != 1 || len(frames[0].Data) != 200 {
		t.Fatalf("got %v; want one 200 byte frame", frames)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d after a complete stream; want 0", d.Buffered())
	}
}

func TestDemuxerFrameDataIsCopied(t *testing.T) {
	stream := segment(element(webm.IDTracks, audioTrack(1)),
		element(webm.IDCluster, uintElement(webm.IDTimecode, 0), simpleBlock(t, 1, 0, []byte{1, 2, 3})),
	)

	frames := pushAll(t, webm.NewDemuxer(), stream, len(stream))
	clear(stream)
	if len(frames) != 1 || !bytes.Equal(frames[0].Data, []byte{1, 2, 3}) {
		t.Errorf("frame data changed with the input buffer: %v", frames)
	}
}

func TestDemuxerFormatErrors(t *testing.T) {
	tracks := element(webm.IDTracks, audioTrack(1))
	table := []struct {
		name   string
		stream []byte
		opts   []webm.Option
	}{
		{
			name:   "zero length class",
			stream: append(ebmlHeader(), 0x00, 0x81, 0x00),
		},
		{
			name:   "reserved id",
			stream: append(ebmlHeader(), 0xFF, 0x80),
		},
		{
			name: "unknown size on a block",
			stream: segment(tracks, unknownElement(webm.IDCluster,
				ebml.EncodeID(uint32(webm.IDSimpleBlock)), ebml.UnknownSize(1), []byte{0x81, 0, 0, 0x80},
			)),
		},
		{
			name: "child overflows parent",
			stream: append(ebmlHeader(),
				append([]byte{0x15, 0x49, 0xA9, 0x66, 0x83}, uintElement(webm.IDTimecodeScale, 1_000_000)...)...,
			),
		},
		{
			name:   "element over the size limit",
			stream: segment(tracks, element(webm.IDCluster, simpleBlock(t, 1, 0, payload(64, 1)))),
			opts:   []webm.Option{webm.WithMaxElementSize(32)},
		},
		{
			name:   "block shorter than its header",
			stream: segment(tracks, element(webm.IDCluster, element(webm.IDSimpleBlock, []byte{0x81, 0x00}))),
		},
		{
			name: "unsupported doc type",
			stream: element(webm.IDEBML,
				uintElement(webm.IDEBMLVersion, 1),
				stringElement(webm.IDDocType, "mkv3d"),
			),
		},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			d := webm.NewDemuxer(tc.opts...)

			var err error
			for i := range tc.stream {
				if _, err = d.Push(tc.stream[i : i+1]); err != nil {
					break
				}
			}
			if err == nil {
				t.Fatal("Push accepted a malformed stream")
			}
			if !ebml.IsFormatError(err) {
				t.Fatalf("Push error = %v; want a FormatError", err)
			}

			_, again := d.Push([]byte{0x1F, 0x43, 0xB6, 0x75})
			if !errors.Is(again, err) {
				t.Errorf("Push after failure returned %v; want %v", again, err)
			}
		})
	}
}
