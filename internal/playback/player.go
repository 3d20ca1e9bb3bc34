// Package playback plays demuxed audio frames in real time.
package playback

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/opusmux/internal/audio"
	"github.com/glizzus/opusmux/internal/opus"
)

var ErrVoiceConnClosed = errors.New("voice connection send timeout")

// DefaultSendTimeout is how long a VoicePlayer waits for the voice
// connection to accept a frame.
const DefaultSendTimeout = time.Minute

// Player consumes frames in stream order.
type Player interface {
	Play(ctx context.Context, frame audio.Frame) error
}

// PlayerFunc adapts a function to a Player.
type PlayerFunc func(ctx context.Context, frame audio.Frame) error

func (f PlayerFunc) Play(ctx context.Context, frame audio.Frame) error {
	return f(ctx, frame)
}

// VoicePlayer sends frames to a Discord voice connection. Discord paces
// the packets it is sent, so Play blocks while the connection is busy.
type VoicePlayer struct {
	vc      *discordgo.VoiceConnection
	timeout time.Duration
}

var _ Player = (*VoicePlayer)(nil)

// NewVoicePlayer returns a player for vc. A non-positive timeout uses
// DefaultSendTimeout.
func NewVoicePlayer(vc *discordgo.VoiceConnection, timeout time.Duration) *VoicePlayer {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &VoicePlayer{vc: vc, timeout: timeout}
}

func (p *VoicePlayer) Play(ctx context.Context, frame audio.Frame) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case p.vc.OpusSend <- frame.Data:
		return nil
	case <-timer.C:
		return ErrVoiceConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlayFrames reads a frame file and plays every frame. It returns nil on a
// clean end of file.
func PlayFrames(ctx context.Context, source *opus.FrameReader, player Player) error {
	var offset time.Duration
	for {
		data, err := source.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		frame := audio.Frame{Data: data, Offset: offset, Duration: audio.FrameDuration}
		if err := player.Play(ctx, frame); err != nil {
			return err
		}
		offset += audio.FrameDuration
	}
}
