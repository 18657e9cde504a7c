package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// Errors
var (
	ErrInvalidTransition = errors.New("cannot restart player after it has been stopped")
	ErrNotRegistered     = errors.New("the listener to be removed was never added")
)

// Tracker wraps an audio.Source with play/pause/stop state and stop
// notifications.
//
// Control calls and ProvideFrame may come from different goroutines.
// The source and the listeners are always called without the lock held.
type Tracker struct {
	mu sync.RWMutex

	source    audio.Source
	flags     flags
	listeners listenerRegistry
}

// NewTracker creates a tracker in the idle state.
func NewTracker(source audio.Source) *Tracker {
	return &Tracker{
		source: source,
		flags:  idle(),
	}
}

// Source returns the wrapped frame source.
func (t *Tracker) Source() audio.Source {
	return t.source
}

// AddStoppedListener registers fn to run when the source reaches
// end-of-stream. The returned id is needed to remove it again.
func (t *Tracker) AddStoppedListener(fn func()) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listeners.add(fn)
}

// RemoveStoppedListener removes a listener registered by AddStoppedListener.
func (t *Tracker) RemoveStoppedListener(id ListenerID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.listeners.remove(id); err != nil {
		return errors.Wrapf(err, "remove stopped listener %s", id)
	}
	return nil
}

// ListenerCount returns the number of registered stopped listeners.
func (t *Tracker) ListenerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listeners.len()
}

// Play starts or resumes playback.
// A session that was started and then stopped cannot be restarted.
func (t *Tracker) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.flags.started && t.flags.stopped {
		return ErrInvalidTransition
	}
	t.flags.started = true
	t.flags.playing = true
	t.flags.paused = false
	t.flags.stopped = false
	return nil
}

// Pause marks the tracker as paused. It does not check the current state.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flags.playing = false
	t.flags.paused = true
}

// Stop marks the tracker as stopped. Calling it again has no effect.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flags.playing = false
	t.flags.paused = false
	t.flags.stopped = true
}

// Reset returns the tracker to the idle state so it can be played again.
// Registered listeners are kept. Intended for types that embed Tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flags = idle()
}

// IsStarted reports whether Play succeeded since creation or the last Reset.
func (t *Tracker) IsStarted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags.started
}

// IsPlaying reports whether the tracker is playing.
func (t *Tracker) IsPlaying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags.playing
}

// IsPaused reports whether the tracker is paused.
func (t *Tracker) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags.paused
}

// IsStopped reports whether the tracker is stopped.
func (t *Tracker) IsStopped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags.stopped
}

// State returns the lifecycle phase derived from the flags.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flags.state()
}

// ProvideFrame returns the next frame from the source.
//
// When the source reports end-of-stream, every stopped listener runs in
// registration order before the error is returned. The stopped flag is
// left untouched; the owner decides whether to call Stop.
func (t *Tracker) ProvideFrame() (audio.Frame, error) {
	frame, err := t.source.ProvideFrame()
	if err != nil {
		t.notifyStopped()
		return nil, err
	}
	return frame, nil
}

// notifyStopped runs a snapshot of the listeners. Listeners added or
// removed during the sweep take effect on the next one.
func (t *Tracker) notifyStopped() {
	t.mu.RLock()
	listeners := t.listeners.snapshot()
	t.mu.RUnlock()

	zlog.Debug().Msgf("playback: source exhausted, notifying %d stopped listeners", len(listeners))

	for _, l := range listeners {
		runListener(l)
	}
}

// runListener calls a single listener, recovering from a panic so the
// remaining listeners still run.
func runListener(l stoppedListener) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().
				Str("listener", string(l.id)).
				Msgf("playback: stopped listener panicked: %v", r)
		}
	}()
	l.fn()
}
