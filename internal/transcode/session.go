// Package transcode runs a WebM recording through the demuxer and fans the
// frames out to a realtime player, an Ogg Opus stream and a frame file.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/glizzus/opusmux/internal/audio"
	"github.com/glizzus/opusmux/internal/config"
	"github.com/glizzus/opusmux/internal/ogg"
	"github.com/glizzus/opusmux/internal/playback"
	"github.com/glizzus/opusmux/internal/webm"
)

// FrameSink receives the payload of every frame. opus.FrameWriter is one.
type FrameSink interface {
	WriteFrame(frame []byte) error
}

// Stats summarise a finished run.
type Stats struct {
	Chunks          int
	Bytes           int64
	Frames          int
	Pages           int
	Duration        time.Duration
	GranulePosition uint64
}

// Session transcodes one recording. It is not safe for concurrent use and
// Run may only be called once.
type Session struct {
	id     string
	cfg    config.TranscodeConfig
	logger *slog.Logger

	demuxer   *webm.Demuxer
	player    playback.Player
	frameSink FrameSink

	out     io.Writer
	state   *ogg.State
	writer  *ogg.OpusWriter
	pending []audio.Frame
	// pendingSegments is the segment table length pending needs.
	pendingSegments int
	wroteHeaders    bool
	sawFormat       bool

	stats Stats
}

type Option func(*Session)

// WithPlayer plays every frame as soon as it is demuxed.
func WithPlayer(p playback.Player) Option {
	return func(s *Session) {
		s.player = p
	}
}

// WithOggOutput writes an Ogg Opus stream with the given serial to w.
func WithOggOutput(w io.Writer, serial uint32) Option {
	return func(s *Session) {
		s.out = w
		s.state = ogg.NewState(serial)
	}
}

// WithFrameOutput writes every frame to sink.
func WithFrameOutput(sink FrameSink) Option {
	return func(s *Session) {
		s.frameSink = sink
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func NewSession(id string, cfg config.TranscodeConfig, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcode config: %w", err)
	}

	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("sessionID", id))
	s.demuxer = webm.NewDemuxer(
		webm.WithAudioTrack(cfg.AudioTrack),
		webm.WithMaxElementSize(cfg.MaxElementSize),
	)
	if s.out != nil {
		s.writer = ogg.NewOpusWriter(s.state, make([]byte, min(cfg.PageBufferSize, ogg.MaxPageSize)))
	}
	return s, nil
}

// Run reads src until EOF. The context is checked between chunks and
// passed to the player.
func (s *Session) Run(ctx context.Context, src io.Reader) (Stats, error) {
	s.logger.Info("Starting transcode",
		slog.Int("chunkSize", s.cfg.ChunkSize),
		slog.Bool("ogg", s.out != nil),
		slog.Bool("player", s.player != nil),
	)

	chunk := make([]byte, s.cfg.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}

		n, readErr := src.Read(chunk)
		if n > 0 {
			if err := s.push(ctx, chunk[:n]); err != nil {
				return s.stats, err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return s.stats, fmt.Errorf("reading recording: %w", readErr)
		}
	}

	if err := s.finish(); err != nil {
		return s.stats, err
	}
	s.logger.Info("Transcode finished",
		slog.Int("frames", s.stats.Frames),
		slog.Int("pages", s.stats.Pages),
		slog.Int64("bytes", s.stats.Bytes),
		slog.Duration("duration", s.stats.Duration),
	)
	return s.stats, nil
}

func (s *Session) push(ctx context.Context, chunk []byte) error {
	s.stats.Chunks++
	s.stats.Bytes += int64(len(chunk))

	frames, err := s.demuxer.Push(chunk)
	if err != nil {
		return fmt.Errorf("demuxing recording: %w", err)
	}
	if !s.sawFormat {
		if format, ok := s.demuxer.Format(); ok {
			s.sawFormat = true
			s.logger.Info("Found audio track",
				slog.Uint64("track", format.TrackNumber),
				slog.String("codec", format.CodecID),
				slog.Int("channels", format.Channels),
				slog.Float64("sampleRate", format.SampleRate),
			)
		}
	}

	for _, frame := range frames {
		if err := s.handle(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handle(ctx context.Context, frame audio.Frame) error {
	s.stats.Frames++
	s.stats.Duration += frame.Duration

	if s.player != nil {
		if err := s.player.Play(ctx, frame); err != nil {
			return fmt.Errorf("playing frame at %v: %w", frame.Offset, err)
		}
	}
	if s.frameSink != nil {
		if err := s.frameSink.WriteFrame(frame.Data); err != nil {
			return fmt.Errorf("writing frame at %v: %w", frame.Offset, err)
		}
	}
	if s.out == nil {
		return nil
	}

	// The newest batch is held back so the last page can carry the end of
	// stream flag.
	segments := ogg.SegmentCount(len(frame.Data))
	if len(s.pending) > 0 && (len(s.pending) >= s.cfg.FramesPerPage || s.pendingSegments+segments > ogg.MaxSegments) {
		if err := s.writeFrames(s.pending, true); err != nil {
			return err
		}
		s.pending = s.pending[:0]
		s.pendingSegments = 0
	}
	s.pending = append(s.pending, frame)
	s.pendingSegments += segments
	return nil
}

func (s *Session) finish() error {
	if s.out == nil {
		return nil
	}
	if err := s.writeFrames(s.pending, false); err != nil {
		return err
	}
	s.pending = nil
	s.stats.GranulePosition = s.state.GranulePosition
	return nil
}

func (s *Session) writeFrames(frames []audio.Frame, hasNext bool) error {
	if err := s.writeHeaders(); err != nil {
		return err
	}
	return s.writePage(func(w *ogg.OpusWriter) (bool, error) {
		return w.WriteFrames(frames, hasNext)
	})
}

func (s *Session) writeHeaders() error {
	if s.wroteHeaders {
		return nil
	}
	head, err := s.opusHead()
	if err != nil {
		return err
	}
	if err := s.writePage(func(w *ogg.OpusWriter) (bool, error) {
		return w.WriteHead(head), nil
	}); err != nil {
		return err
	}
	if err := s.writePage(func(w *ogg.OpusWriter) (bool, error) {
		return w.WriteTags(ogg.OpusTags{}), nil
	}); err != nil {
		return err
	}
	s.wroteHeaders = true
	return nil
}

// opusHead prefers the OpusHead stored as CodecPrivate and otherwise builds
// one from the track description.
func (s *Session) opusHead() (ogg.OpusHead, error) {
	format, ok := s.demuxer.Format()
	if !ok {
		s.logger.Warn("No audio track found, writing an empty stream")
		return ogg.NewOpusHead(2, 0, ogg.SampleRate), nil
	}
	if !format.IsOpus() {
		return ogg.OpusHead{}, fmt.Errorf("audio track %d has codec %q, not Opus", format.TrackNumber, format.CodecID)
	}
	if len(format.CodecPrivate) > 0 {
		head, err := ogg.ParseOpusHead(format.CodecPrivate)
		if err != nil {
			return ogg.OpusHead{}, fmt.Errorf("reading codec private data: %w", err)
		}
		return head, nil
	}
	return ogg.NewOpusHead(uint8(format.Channels), uint16(ogg.Samples(format.CodecDelay)), uint32(format.SampleRate)), nil
}

// writePage writes one page and flushes it to the output. A page that does
// not fit grows the buffer, up to the largest possible page.
func (s *Session) writePage(write func(*ogg.OpusWriter) (bool, error)) error {
	for {
		ok, err := write(s.writer)
		if err != nil {
			return fmt.Errorf("writing ogg page %d: %w", s.state.PageCount, err)
		}
		if ok {
			break
		}

		size := len(s.writer.Bytes()) + s.writer.Remaining()
		if size >= ogg.MaxPageSize {
			return fmt.Errorf("ogg page %d does not fit in %d bytes", s.state.PageCount, size)
		}
		size = min(size*2, ogg.MaxPageSize)
		s.logger.Debug("Growing page buffer", slog.Int("size", size))
		s.writer = ogg.NewOpusWriter(s.state, make([]byte, size))
	}

	if _, err := s.out.Write(s.writer.Bytes()); err != nil {
		return fmt.Errorf("writing ogg output: %w", err)
	}
	s.writer.Reset()
	s.stats.Pages++
	return nil
}
