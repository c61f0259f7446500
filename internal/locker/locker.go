package locker

import (
	"sync"
	"time"

	"github.com/locker-pass-manager/backend/internal/apperr"
	"github.com/locker-pass-manager/backend/internal/pin"
)

// Locker is a single physical storage unit governed by a state machine.
//
// The passcode is only meaningful while the locker is ACTIVE, UNLOCKED or
// IN_USAGE; an unset passcode (0) never unlocks.
type Locker struct {
	id       int
	cabinet  *Cabinet
	location string

	mu        sync.Mutex
	passcode  int
	state     State
	listeners []Listener
}

// NewLocker creates a locker in the LOCKED state.
// The cabinet reference is informational; membership is owned by the cabinet.
func NewLocker(id int, cabinet *Cabinet, location string) *Locker {
	return &Locker{
		id:       id,
		cabinet:  cabinet,
		location: location,
		state:    StateLocked,
	}
}

// ID returns the immutable locker id.
func (l *Locker) ID() int {
	return l.id
}

// Cabinet returns the cabinet the locker was created for.
func (l *Locker) Cabinet() *Cabinet {
	return l.cabinet
}

// Location returns the locker location.
func (l *Locker) Location() string {
	return l.location
}

// State returns the current state.
func (l *Locker) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Password returns the current passcode, 0 when unset.
func (l *Locker) Password() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passcode
}

// IsLocked reports whether the locker is LOCKED.
func (l *Locker) IsLocked() bool {
	return l.State() == StateLocked
}

// IsActivated reports whether the locker is ACTIVE. UNLOCKED and IN_USAGE do not count.
func (l *Locker) IsActivated() bool {
	return l.State() == StateActive
}

// AddCallback registers a listener. Listeners are notified in registration order.
func (l *Locker) AddCallback(listener Listener) error {
	if listener == nil {
		return apperr.IllegalParameter("listener is nil")
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, listener)
	l.mu.Unlock()
	return nil
}

// RemoveCallback unregisters the first registration of listener.
// Removing a listener that was never registered is a no-op.
func (l *Locker) RemoveCallback(listener Listener) error {
	if listener == nil {
		return apperr.IllegalParameter("listener is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, registered := range l.listeners {
		if registered == listener {
			l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
			break
		}
	}
	return nil
}

// Listeners returns a snapshot of the registered listeners.
func (l *Locker) Listeners() []Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Listener, len(l.listeners))
	copy(out, l.listeners)
	return out
}

// Unlock opens the locker when code matches the stored passcode.
func (l *Locker) Unlock(code int) error {
	l.mu.Lock()
	if code == 0 || code != l.passcode {
		l.mu.Unlock()
		return apperr.IllegalParameter("the passcode for locker %d is not correct", l.id)
	}
	return l.moveLocked(StateUnlocked)
}

// Lock closes the locker. Locking an already locked locker fails.
func (l *Locker) Lock() error {
	l.mu.Lock()
	if l.state == StateLocked {
		l.mu.Unlock()
		return apperr.IllegalState("locker %d is already locked", l.id)
	}
	return l.moveLocked(StateLocked)
}

// Activate makes the locker ready for a rental.
func (l *Locker) Activate() error {
	l.mu.Lock()
	if l.state.in(StateActive, StateDisabled) {
		current := l.state
		l.mu.Unlock()
		return apperr.IllegalState("locker %d cannot be activated from %s", l.id, current)
	}
	return l.moveLocked(StateActive)
}

// Deactivate returns an ACTIVE locker to DEACTIVATED.
func (l *Locker) Deactivate() error {
	l.mu.Lock()
	if l.state != StateActive {
		current := l.state
		l.mu.Unlock()
		return apperr.IllegalState("locker %d cannot be deactivated from %s", l.id, current)
	}
	return l.moveLocked(StateDeactivated)
}

// Disable takes the locker out of service. Only DEACTIVATED and ACTIVE lockers can be disabled.
func (l *Locker) Disable() error {
	l.mu.Lock()
	if !l.state.in(StateDeactivated, StateActive) {
		current := l.state
		l.mu.Unlock()
		return apperr.IllegalState("locker %d cannot be disabled from %s", l.id, current)
	}
	return l.moveLocked(StateDisabled)
}

// SetPassword replaces the passcode and notifies listeners with the new code.
func (l *Locker) SetPassword(code int) error {
	if err := pin.ValidatePasscode(code); err != nil {
		return err
	}
	l.mu.Lock()
	l.passcode = code
	listeners := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(listeners, Event{LockerID: l.id, Kind: EventPasswordChanged, Code: code, At: time.Now().UTC()})
	return nil
}

// forceState overwrites the state without any transition check.
// It reports whether the state actually changed.
func (l *Locker) forceState(state State) ([]Listener, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.state != state
	l.state = state
	return l.snapshotLocked(), changed
}

// moveLocked sets the new state, releases l.mu and notifies listeners when
// the state actually changed. The caller must hold l.mu.
func (l *Locker) moveLocked(state State) error {
	if l.state == state {
		l.mu.Unlock()
		return nil
	}
	l.state = state
	listeners := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(listeners, Event{LockerID: l.id, Kind: EventStateChanged, State: state, At: time.Now().UTC()})
	return nil
}

func (l *Locker) snapshotLocked() []Listener {
	out := make([]Listener, len(l.listeners))
	copy(out, l.listeners)
	return out
}

func (l *Locker) notify(listeners []Listener, ev Event) {
	for _, listener := range listeners {
		listener.Notify(ev)
	}
}
