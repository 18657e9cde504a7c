package playback

import (
	"github.com/google/uuid"
)

// ListenerID identifies one registration of a stopped listener.
type ListenerID string

// stoppedListener is a single registry entry.
type stoppedListener struct {
	id ListenerID
	fn func()
}

// listenerRegistry keeps stopped listeners in registration order.
// It is not safe for concurrent use; Tracker guards it with its own lock.
type listenerRegistry struct {
	entries []stoppedListener
}

// add appends fn and returns a fresh id for it. The same fn may be added
// more than once; each registration gets its own id.
func (r *listenerRegistry) add(fn func()) ListenerID {
	id := ListenerID(uuid.New().String())
	r.entries = append(r.entries, stoppedListener{id: id, fn: fn})
	return id
}

// remove deletes the entry with the given id.
func (r *listenerRegistry) remove(id ListenerID) error {
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

// snapshot returns a copy of the entries so callers can iterate without
// holding the lock while listeners mutate the registry.
func (r *listenerRegistry) snapshot() []stoppedListener {
	result := make([]stoppedListener, len(r.entries))
	copy(result, r.entries)
	return result
}

func (r *listenerRegistry) len() int {
	return len(r.entries)
}
