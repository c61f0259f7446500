package locker

import (
	"sync"
	"time"
)

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	EventStateChanged    EventKind = "state_changed"
	EventPasswordChanged EventKind = "password_changed"
)

// Event is delivered to listeners on every state or password change.
// State is set for EventStateChanged, Code for EventPasswordChanged.
type Event struct {
	LockerID int
	Kind     EventKind
	State    State
	Code     int
	At       time.Time
}

// Listener receives locker events synchronously, in registration order.
// Implementations must be comparable (pointer receivers) so they can be removed again.
type Listener interface {
	Notify(Event)
}

// Recorder is a Listener that remembers what it was told.
type Recorder struct {
	mu       sync.Mutex
	state    State
	password int
	events   []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Listener.
func (r *Recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case EventStateChanged:
		r.state = ev.State
	case EventPasswordChanged:
		r.password = ev.Code
	}
	r.events = append(r.events, ev)
}

// CurrentState returns the last state received.
func (r *Recorder) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentPassword returns the last password received.
func (r *Recorder) CurrentPassword() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.password
}

// Events returns a copy of every event received so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
