// Package locker implements the locker state machine, cabinets, the locker
// repository and the user and admin services that guard access to them.
package locker

import (
	"strings"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

// State is the lifecycle state of a locker.
type State string

const (
	StateUnlocked    State = "UNLOCKED"
	StateLocked      State = "LOCKED"
	StateActive      State = "ACTIVE"
	StateDeactivated State = "DEACTIVATED"
	StateDisabled    State = "DISABLED"
	StateInUsage     State = "IN_USAGE"
)

// States lists every locker state.
var States = []State{
	StateUnlocked,
	StateLocked,
	StateActive,
	StateDeactivated,
	StateDisabled,
	StateInUsage,
}

func (s State) String() string {
	return string(s)
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// in reports whether s is one of the given states.
func (s State) in(states ...State) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseState parses a state name case-insensitively.
func ParseState(name string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", apperr.IllegalArgument("unknown locker state %q", name)
	}
	return s, nil
}
