// Package playback tracks the lifecycle of a frame-producing player and
// notifies listeners when its frame source runs dry.
package playback

// State is the lifecycle phase derived from the tracker's flags.
type State int

const (
	StateIdle    State = iota // Never started, or reset
	StateActive               // Playing
	StatePaused               // Paused
	StateStopped              // Started, then stopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// flags holds the four independent lifecycle booleans.
//
// At most one of playing and paused is true. stopped is true initially and
// after Stop. started is set by a successful play and cleared only by reset.
type flags struct {
	started bool
	playing bool
	paused  bool
	stopped bool
}

// idle returns the flags of a fresh tracker.
func idle() flags {
	return flags{stopped: true}
}

// state folds the flags into a single State. Paused wins over playing so
// that the permissive pause-before-play combination still reports paused.
func (f flags) state() State {
	switch {
	case f.paused:
		return StatePaused
	case f.playing:
		return StateActive
	case f.started:
		return StateStopped
	default:
		return StateIdle
	}
}
