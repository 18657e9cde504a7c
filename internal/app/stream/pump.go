// Package stream drives a playback tracker from its own goroutine and
// writes the produced frames to a sink.
package stream

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/eventplayer/internal/app/playback"
	"github.com/osa030/eventplayer/internal/domain/audio"
)

// Player is the part of playback.Tracker the pump needs.
type Player interface {
	IsStopped() bool
	State() playback.State
	ProvideFrame() (audio.Frame, error)
}

// Config holds pump configuration.
type Config struct {
	Realtime bool // Pace frames at one per audio.FrameDuration
}

// Pump pulls frames from a Player and writes them to a sink.
type Pump struct {
	player Player
	sink   io.Writer
	config Config
	frames atomic.Int64
}

// NewPump creates a new pump.
func NewPump(player Player, sink io.Writer, config Config) *Pump {
	return &Pump{
		player: player,
		sink:   sink,
		config: config,
	}
}

// Frames returns the number of frames written so far.
func (p *Pump) Frames() int64 {
	return p.frames.Load()
}

// Run pumps frames until the source is exhausted, the player is stopped or
// leaves the active and paused states, or ctx is cancelled. While paused no frames are
// pulled. End-of-stream is not an error.
func (p *Pump) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.config.Realtime {
		ticker := time.NewTicker(audio.FrameDuration)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Checked first: pausing before play leaves the tracker both
		// paused and stopped.
		if p.player.IsStopped() {
			zlog.Debug().Msgf("stream: player stopped after %d frames", p.Frames())
			return nil
		}

		switch p.player.State() {
		case playback.StatePaused:
			if err := p.wait(ctx, tick); err != nil {
				return err
			}
			continue
		case playback.StateActive:
		default:
			zlog.Debug().Msgf("stream: player not active, stopping after %d frames", p.Frames())
			return nil
		}

		if tick != nil {
			if err := p.wait(ctx, tick); err != nil {
				return err
			}
		}

		frame, err := p.player.ProvideFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				zlog.Debug().Msgf("stream: end of stream after %d frames (%v)",
					p.Frames(), audio.Duration(int(p.Frames())))
				return nil
			}
			return errors.Wrap(err, "failed to provide frame")
		}

		if _, err := p.sink.Write(frame); err != nil {
			return errors.Wrap(err, "failed to write frame")
		}
		p.frames.Add(1)
	}
}

// wait blocks for one tick, or one frame duration when not pacing.
func (p *Pump) wait(ctx context.Context, tick <-chan time.Time) error {
	if tick == nil {
		timer := time.NewTimer(audio.FrameDuration)
		defer timer.Stop()
		tick = timer.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tick:
		return nil
	}
}
