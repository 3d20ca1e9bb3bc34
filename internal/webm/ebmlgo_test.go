package webm_test

import (
	"bytes"
	"testing"
	"time"

	ebmlwebm "github.com/at-wat/ebml-go/webm"
	"github.com/glizzus/opusmux/internal/webm"
)

// recordingBuffer collects the output of an ebml-go writer. The writer
// closes its destination from its own goroutine, so done reports when the
// bytes are ready.
type recordingBuffer struct {
	bytes.Buffer
	done chan struct{}
}

func (b *recordingBuffer) Close() error {
	close(b.done)
	return nil
}

func TestDemuxerReadsEBMLGoOutput(t *testing.T) {
	out := &recordingBuffer{done: make(chan struct{})}
	writers, err := ebmlwebm.NewSimpleBlockWriter(out, []ebmlwebm.TrackEntry{{
		Name:            "Audio",
		TrackNumber:     1,
		TrackUID:        12345,
		CodecID:         "A_OPUS",
		TrackType:       webm.TrackTypeAudio,
		DefaultDuration: 20_000_000,
		Audio: &ebmlwebm.Audio{
			SamplingFrequency: 48000.0,
			Channels:          2,
		},
	}})
	if err != nil {
		t.Fatalf("NewSimpleBlockWriter returned error: %v", err)
	}

	const count = 120
	written := 0
	for i := 0; i < count; i++ {
		packet := payload(40+i%60, byte(i))
		if _, err := writers[0].Write(true, int64(i*20), packet); err != nil {
			t.Fatalf("writing packet %d: %v", i, err)
		}
		written += len(packet)
	}
	if err := writers[0].Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	select {
	case <-out.done:
	case <-time.After(5 * time.Second):
		t.Fatal("ebml-go writer did not close its output")
	}

	for _, chunk := range []int{out.Len(), 1, 97} {
		d := webm.NewDemuxer()
		frames := pushAll(t, d, out.Bytes(), chunk)
		if len(frames) != count {
			t.Fatalf("chunk %d: got %d frames; want %d", chunk, len(frames), count)
		}

		total := 0
		for i, f := range frames {
			total += len(f.Data)
			if want := time.Duration(i) * 20 * time.Millisecond; f.Offset != want {
				t.Errorf("chunk %d: frame %d offset = %v; want %v", chunk, i, f.Offset, want)
			}
		}
		if total != written {
			t.Errorf("chunk %d: demuxed %d bytes; want %d", chunk, total, written)
		}

		format, ok := d.Format()
		if !ok || format.Channels != 2 || format.SampleRate != 48000 || !format.IsOpus() {
			t.Errorf("chunk %d: Format() = %+v, %v", chunk, format, ok)
		}
	}
}
