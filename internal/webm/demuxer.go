package webm

import (
	"bytes"
	"fmt"
	"time"

	"github.com/glizzus/opusmux/internal/audio"
	"github.com/glizzus/opusmux/internal/ebml"
	"github.com/glizzus/opusmux/internal/span"
	"github.com/glizzus/opusmux/internal/util"
)

const (
	// TrackTypeAudio is the TrackType value of audio tracks.
	TrackTypeAudio = 2

	// DefaultTimecodeScale is the nanoseconds per timecode tick used when
	// the stream does not declare one.
	DefaultTimecodeScale = 1_000_000

	// DefaultMaxElementSize bounds how much of a single element the demuxer
	// will buffer.
	DefaultMaxElementSize = 16 << 20
)

// TrackEntry is a track as announced in the Tracks element.
type TrackEntry struct {
	Number       uint64
	UID          uint64
	Type         uint64
	CodecID      string
	CodecPrivate []byte
	// CodecDelay and SeekPreRoll are in nanoseconds.
	CodecDelay        uint64
	SeekPreRoll       uint64
	SamplingFrequency float64
	Channels          uint64
	BitDepth          uint64
}

type phase uint8

const (
	awaitingHeader phase = iota
	bufferingBody
	skippingBody
)

const unknownEnd = -1

type elementHeader struct {
	id    ElementID
	start int64
	size  int64
}

type container struct {
	id  ElementID
	end int64
}

// Demuxer extracts audio frames from a WebM byte stream delivered in
// arbitrary chunks. It is not safe for concurrent use.
type Demuxer struct {
	buf []byte
	pos int
	// base is the stream offset of buf[0].
	base int64

	phase   phase
	pending elementHeader
	skip    int64
	stack   []container
	err     error

	audioTrack     uint64
	frameDuration  time.Duration
	maxElementSize int64

	timecodeScale   uint64
	clusterTimecode uint64
	tracks          []TrackEntry
	entry           *TrackEntry
	track           uint64
	format          audio.Format
	hasFormat       bool

	frames []audio.Frame
}

type Option func(*Demuxer)

// WithAudioTrack selects the track to extract instead of the first audio
// track.
func WithAudioTrack(number uint64) Option {
	return func(d *Demuxer) {
		d.audioTrack = number
	}
}

// WithFrameDuration sets the duration given to every emitted frame.
func WithFrameDuration(duration time.Duration) Option {
	return func(d *Demuxer) {
		if duration > 0 {
			d.frameDuration = duration
		}
	}
}

// WithMaxElementSize bounds the body size of elements that are decoded.
// Larger elements are rejected as malformed.
func WithMaxElementSize(size int64) Option {
	return func(d *Demuxer) {
		if size > 0 {
			d.maxElementSize = size
		}
	}
}

func NewDemuxer(opts ...Option) *Demuxer {
	d := &Demuxer{
		frameDuration:  audio.FrameDuration,
		maxElementSize: DefaultMaxElementSize,
		timecodeScale:  DefaultTimecodeScale,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.track = d.audioTrack
	return d
}

// Format returns the selected audio track once the Tracks element has been
// read.
func (d *Demuxer) Format() (audio.Format, bool) {
	return d.format, d.hasFormat
}

// Tracks returns every track entry read so far.
func (d *Demuxer) Tracks() []TrackEntry {
	return d.tracks
}

// Buffered returns the number of bytes held back for the next Push.
func (d *Demuxer) Buffered() int {
	return len(d.buf) - d.pos
}

// Push feeds the next chunk of the stream and returns the frames it
// completed, in stream order. Incomplete elements are kept for the next
// call. Once Push returns an error every later call returns the same error.
func (d *Demuxer) Push(chunk []byte) ([]audio.Frame, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, chunk...)

	for {
		progressed, err := d.step()
		if err != nil {
			d.err = err
			d.frames = nil
			return nil, err
		}
		if !progressed {
			break
		}
	}
	if d.phase == awaitingHeader {
		d.closeFinished()
	}
	d.compact()

	frames := d.frames
	d.frames = nil
	return frames, nil
}

func (d *Demuxer) offset() int64 {
	return d.base + int64(d.pos)
}

func (d *Demuxer) compact() {
	if d.pos == 0 {
		return
	}
	d.base += int64(d.pos)
	n := copy(d.buf, d.buf[d.pos:])
	d.buf = d.buf[:n]
	d.pos = 0
}

func fail(offset int64, err error) error {
	return fmt.Errorf("webm: element at offset %d: %w", offset, err)
}

func (d *Demuxer) step() (bool, error) {
	switch d.phase {
	case skippingBody:
		n := min(int64(len(d.buf)-d.pos), d.skip)
		d.pos += int(n)
		d.skip -= n
		if d.skip > 0 {
			return false, nil
		}
		d.phase = awaitingHeader
		return true, nil

	case bufferingBody:
		size := int(d.pending.size)
		available := min(len(d.buf)-d.pos, size)
		if d.foreignBlock(d.buf[d.pos : d.pos+available]) {
			d.skipBody(d.pending.size)
			return true, nil
		}
		if available < size {
			return false, nil
		}
		body := d.buf[d.pos : d.pos+size]
		d.pos += size
		d.phase = awaitingHeader
		if err := decoders[d.pending.id](d, body); err != nil {
			return false, fail(d.pending.start, err)
		}
		return true, nil

	default:
		d.closeFinished()
		start := d.offset()
		h, ok, err := d.readHeader()
		if err != nil {
			return false, fail(start, err)
		}
		if !ok {
			return false, nil
		}
		if err := d.begin(h); err != nil {
			return false, fail(start, err)
		}
		return true, nil
	}
}

func (d *Demuxer) readHeader() (elementHeader, bool, error) {
	r := span.NewReader(d.buf[d.pos:])
	id, ok, err := r.ID()
	if err != nil || !ok {
		return elementHeader{}, false, err
	}
	size, ok, err := r.VInt()
	if err != nil || !ok {
		return elementHeader{}, false, err
	}

	h := elementHeader{id: ElementID(id.ID()), start: d.offset(), size: int64(size.Value)}
	if size.IsUnknown() {
		h.size = unknownEnd
	}
	d.pos += r.Position()
	return h, true, nil
}

func (d *Demuxer) begin(h elementHeader) error {
	desc, known := Lookup(h.id)
	unknownSize := h.size == unknownEnd
	if unknownSize && (!known || desc.Kind != KindMaster) {
		return ebml.Errorf("read element", "%s %#x has unknown size but is not a master", h.id, uint32(h.id))
	}
	if known {
		d.closeUnknown(desc)
	}

	dataStart := d.offset()
	if !unknownSize && len(d.stack) > 0 {
		if parent := d.stack[len(d.stack)-1]; parent.end != unknownEnd && dataStart+h.size > parent.end {
			return ebml.Errorf("read element", "%s of %d bytes overflows its parent %s", h.id, h.size, parent.id)
		}
	}

	switch {
	case !known, desc.Skip && !unknownSize:
		d.skipBody(h.size)
	case desc.Kind == KindMaster:
		end := int64(unknownEnd)
		if !unknownSize {
			end = dataStart + h.size
		}
		d.stack = append(d.stack, container{id: h.id, end: end})
		d.enter(h.id)
	case decoders[h.id] == nil:
		d.skipBody(h.size)
	default:
		if h.size > d.maxElementSize {
			return ebml.Errorf("read element", "%s of %d bytes exceeds the %d byte limit", h.id, h.size, d.maxElementSize)
		}
		d.pending = h
		d.phase = bufferingBody
	}
	return nil
}

func (d *Demuxer) skipBody(size int64) {
	d.skip = size
	d.phase = skippingBody
}

// closeFinished leaves every master whose declared end has been reached,
// along with anything still open inside it.
func (d *Demuxer) closeFinished() {
	pos := d.offset()
	for i, c := range d.stack {
		if c.end != unknownEnd && pos >= c.end {
			d.popTo(i)
			return
		}
	}
}

// closeUnknown leaves unknown-size masters that cannot contain an element
// of type desc.
func (d *Demuxer) closeUnknown(desc Descriptor) {
	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		if top.end != unknownEnd || descendsFrom(desc, top.id) {
			return
		}
		d.popTo(len(d.stack) - 1)
	}
}

func (d *Demuxer) popTo(depth int) {
	for len(d.stack) > depth {
		top := d.stack[len(d.stack)-1]
		d.stack = d.stack[:len(d.stack)-1]
		d.leave(top.id)
	}
}

func (d *Demuxer) enter(id ElementID) {
	switch id {
	case IDTracks:
		d.tracks = nil
	case IDTrackEntry:
		d.entry = &TrackEntry{}
	case IDCluster:
		d.clusterTimecode = 0
	}
}

func (d *Demuxer) leave(id ElementID) {
	switch id {
	case IDTrackEntry:
		if d.entry != nil {
			d.tracks = append(d.tracks, *d.entry)
			d.entry = nil
		}
	case IDTracks:
		d.selectTrack()
	}
}

func (d *Demuxer) selectTrack() {
	entry, ok := util.FindFirst(d.tracks, func(t TrackEntry) bool {
		if d.audioTrack != 0 {
			return t.Number == d.audioTrack
		}
		return t.Type == TrackTypeAudio
	})
	if !ok {
		return
	}

	channels := int(entry.Channels)
	if channels == 0 {
		channels = 1
	}
	rate := entry.SamplingFrequency
	if rate == 0 {
		rate = 8000
	}
	d.track = entry.Number
	d.format = audio.Format{
		TrackNumber:  entry.Number,
		CodecID:      entry.CodecID,
		Channels:     channels,
		SampleRate:   rate,
		BitDepth:     int(entry.BitDepth),
		CodecDelay:   time.Duration(entry.CodecDelay),
		SeekPreRoll:  time.Duration(entry.SeekPreRoll),
		CodecPrivate: entry.CodecPrivate,
	}
	d.hasFormat = true
}

// foreignBlock reports whether the block being buffered belongs to a track
// that is not extracted. It is false until the track number has arrived.
func (d *Demuxer) foreignBlock(prefix []byte) bool {
	switch d.pending.id {
	case IDSimpleBlock, IDBlock:
	default:
		return false
	}
	track, ok, err := span.NewReader(prefix).VInt()
	if err != nil || !ok {
		return false
	}
	return track.Value != d.track
}

func (d *Demuxer) emit(kind BlockKind, body []byte) error {
	b, err := ParseBlock(kind, body)
	if err != nil {
		return err
	}
	if d.track == 0 || b.TrackNumber != d.track {
		return nil
	}

	ticks := int64(d.clusterTimecode) + int64(b.TimeCode)
	offset := time.Duration(ticks) * time.Duration(d.timecodeScale)
	for i, data := range b.Frames() {
		d.frames = append(d.frames, audio.Frame{
			Data:     bytes.Clone(data),
			Offset:   offset + time.Duration(i)*d.frameDuration,
			Duration: d.frameDuration,
		})
	}
	return nil
}

// entryField applies set to the open track entry. Fields found outside a
// TrackEntry are ignored.
func entryField(set func(*TrackEntry, []byte) error) func(*Demuxer, []byte) error {
	return func(d *Demuxer, body []byte) error {
		if d.entry == nil {
			return nil
		}
		return set(d.entry, body)
	}
}

func entryUint(field func(*TrackEntry) *uint64) func(*Demuxer, []byte) error {
	return entryField(func(t *TrackEntry, body []byte) error {
		v, err := ebml.Uint(body)
		if err != nil {
			return err
		}
		*field(t) = v
		return nil
	})
}

var decoders = map[ElementID]func(*Demuxer, []byte) error{
	IDDocType: func(d *Demuxer, body []byte) error {
		switch docType := ebml.String(body); docType {
		case "webm", "matroska":
			return nil
		default:
			return ebml.Errorf("read header", "unsupported doc type %q", docType)
		}
	},
	IDTimecodeScale: func(d *Demuxer, body []byte) error {
		v, err := ebml.Uint(body)
		if err != nil {
			return err
		}
		if v != 0 {
			d.timecodeScale = v
		}
		return nil
	},
	IDTimecode: func(d *Demuxer, body []byte) error {
		v, err := ebml.Uint(body)
		if err != nil {
			return err
		}
		d.clusterTimecode = v
		return nil
	},

	IDTrackNumber: entryUint(func(t *TrackEntry) *uint64 { return &t.Number }),
	IDTrackUID:    entryUint(func(t *TrackEntry) *uint64 { return &t.UID }),
	IDTrackType:   entryUint(func(t *TrackEntry) *uint64 { return &t.Type }),
	IDCodecDelay:  entryUint(func(t *TrackEntry) *uint64 { return &t.CodecDelay }),
	IDSeekPreRoll: entryUint(func(t *TrackEntry) *uint64 { return &t.SeekPreRoll }),
	IDChannels:    entryUint(func(t *TrackEntry) *uint64 { return &t.Channels }),
	IDBitDepth:    entryUint(func(t *TrackEntry) *uint64 { return &t.BitDepth }),
	IDCodecID: entryField(func(t *TrackEntry, body []byte) error {
		t.CodecID = ebml.String(body)
		return nil
	}),
	IDCodecPrivate: entryField(func(t *TrackEntry, body []byte) error {
		t.CodecPrivate = bytes.Clone(body)
		return nil
	}),
	IDSamplingFrequency: entryField(func(t *TrackEntry, body []byte) error {
		v, err := ebml.Float(body)
		if err != nil {
			return err
		}
		t.SamplingFrequency = v
		return nil
	}),

	IDSimpleBlock: func(d *Demuxer, body []byte) error {
		return d.emit(BlockKindSimple, body)
	},
	IDBlock: func(d *Demuxer, body []byte) error {
		return d.emit(BlockKindBlock, body)
	},
	// BlockVirtual carries no payload; it is parsed so a malformed one is
	// still reported.
	IDBlockVirtual: func(d *Demuxer, body []byte) error {
		_, err := ParseBlock(BlockKindVirtual, body)
		return err
	},
}
