package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// TranscodeConfig tunes a transcode session.
type TranscodeConfig struct {
	// ChunkSize is how many bytes are read from the source per push.
	ChunkSize int `env:"OPUSMUX_CHUNK_SIZE, default=4096"`
	// FramesPerPage caps the number of Opus packets per Ogg page.
	FramesPerPage int `env:"OPUSMUX_FRAMES_PER_PAGE, default=50"`
	// PageBufferSize is the initial size of the page buffer. It grows when
	// a page does not fit.
	PageBufferSize int `env:"OPUSMUX_PAGE_BUFFER_SIZE, default=8192"`
	// AudioTrack forces a WebM track number. Zero picks the first audio
	// track.
	AudioTrack uint64 `env:"OPUSMUX_AUDIO_TRACK, default=0"`
	// MaxElementSize bounds the WebM elements held in memory.
	MaxElementSize int64 `env:"OPUSMUX_MAX_ELEMENT_SIZE, default=16777216"`
}

func NewTranscodeConfigFromEnv() (*TranscodeConfig, error) {
	return newTranscodeConfig(envconfig.OsLookuper())
}

func newTranscodeConfig(lookuper envconfig.Lookuper) (*TranscodeConfig, error) {
	var cfg TranscodeConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings a session cannot run with.
func (c *TranscodeConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("OPUSMUX_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.FramesPerPage <= 0 || c.FramesPerPage > 255 {
		return fmt.Errorf("OPUSMUX_FRAMES_PER_PAGE must be between 1 and 255, got %d", c.FramesPerPage)
	}
	if c.PageBufferSize <= 0 {
		return fmt.Errorf("OPUSMUX_PAGE_BUFFER_SIZE must be positive, got %d", c.PageBufferSize)
	}
	if c.MaxElementSize <= 0 {
		return fmt.Errorf("OPUSMUX_MAX_ELEMENT_SIZE must be positive, got %d", c.MaxElementSize)
	}
	return nil
}
