package locker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

type fixedGenerator struct{ code int }

func (f fixedGenerator) CreatePasscode() int { return f.code }

type fixture struct {
	repo    *Repository
	admin   *AdminService
	service *Service
	cabinet *Cabinet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	service := NewService(repo, fixedGenerator{code: 271828}, nil)

	cabID, err := admin.CreateLockerCabinet("Station")
	require.NoError(t, err)
	cab, err := admin.LockerCabinet(cabID)
	require.NoError(t, err)

	return &fixture{repo: repo, admin: admin, service: service, cabinet: cab}
}

// newLocker creates a locker and forces it into state.
func (f *fixture) newLocker(t *testing.T, state State) int {
	t.Helper()
	id, err := f.admin.CreateLocker(f.cabinet, "Station / slot")
	require.NoError(t, err)
	require.NoError(t, f.admin.SetLockerState(id, state))
	return id
}

func TestServiceUnknownLocker(t *testing.T) {
	f := newFixture(t)
	calls := map[string]func() error{
		"unlock":     func() error { return f.service.UnlockLocker(99, 123456) },
		"lock":       func() error { return f.service.LockLocker(99) },
		"activate":   func() error { return f.service.ActivateLocker(99) },
		"deactivate": func() error { return f.service.DeactivateLocker(99) },
		"disable":    func() error { return f.service.DisableLocker(99) },
		"password":   func() error { return f.service.SetLockerPassword(99, 123456) },
		"create":     func() error { _, err := f.service.CreateLockerPassword(99); return err },
		"state":      func() error { _, err := f.service.LockerState(99); return err },
		"callback":   func() error { return f.service.AddCallback(99, NewRecorder()) },
	}
	for name, call := range calls {
		assert.ErrorIs(t, call(), apperr.ErrIllegalParameter, name)
	}
}

func TestServiceStateWhitelists(t *testing.T) {
	cases := []struct {
		name    string
		allowed []State
		call    func(s *Service, id int) error
	}{
		{"unlock", []State{StateLocked, StateActive}, func(s *Service, id int) error { return s.UnlockLocker(id, 314159) }},
		{"lock", []State{StateUnlocked, StateActive}, func(s *Service, id int) error { return s.LockLocker(id) }},
		{"activate", []State{StateDeactivated, StateLocked}, func(s *Service, id int) error { return s.ActivateLocker(id) }},
		{"deactivate", []State{StateActive}, func(s *Service, id int) error { return s.DeactivateLocker(id) }},
		{"disable", []State{StateDeactivated, StateActive}, func(s *Service, id int) error { return s.DisableLocker(id) }},
		{"set password", []State{StateActive}, func(s *Service, id int) error { return s.SetLockerPassword(id, 314159) }},
		{"create password", []State{StateActive}, func(s *Service, id int) error { _, err := s.CreateLockerPassword(id); return err }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, state := range States {
				f := newFixture(t)
				id := f.newLocker(t, state)
				l, err := f.service.Locker(id)
				require.NoError(t, err)
				// give unlock a matching passcode so only the state decides
				l.mu.Lock()
				l.passcode = 314159
				l.mu.Unlock()

				err = tc.call(f.service, id)
				if stateIn(state, tc.allowed) {
					assert.NoError(t, err, "from %s", state)
					continue
				}
				assert.ErrorIs(t, err, apperr.ErrIllegalState, "from %s", state)
				assert.Equal(t, state, l.State(), "state must not change")
			}
		})
	}
}

func TestServiceRentalCycle(t *testing.T) {
	f := newFixture(t)
	id := f.newLocker(t, StateLocked)
	rec := NewRecorder()
	require.NoError(t, f.service.AddCallback(id, rec))

	require.NoError(t, f.service.ActivateLocker(id))
	code, err := f.service.CreateLockerPassword(id)
	require.NoError(t, err)
	assert.Equal(t, 271828, code)

	assert.ErrorIs(t, f.service.UnlockLocker(id, 111111), apperr.ErrIllegalParameter)
	require.NoError(t, f.service.UnlockLocker(id, code))
	require.NoError(t, f.service.LockLocker(id))

	state, err := f.service.LockerState(id)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, state)
	assert.Equal(t, StateLocked, rec.CurrentState())
	assert.Equal(t, code, rec.CurrentPassword())

	require.NoError(t, f.service.RemoveCallback(id, rec))
	require.NoError(t, f.service.ActivateLocker(id))
	assert.Equal(t, StateLocked, rec.CurrentState())
}

func TestServiceSetPasswordValidatesCode(t *testing.T) {
	f := newFixture(t)
	id := f.newLocker(t, StateActive)
	assert.ErrorIs(t, f.service.SetLockerPassword(id, 42), apperr.ErrIllegalParameter)
	require.NoError(t, f.service.SetLockerPassword(id, 987123))
	l, _ := f.service.Locker(id)
	assert.Equal(t, 987123, l.Password())
}

func TestServiceNilCallback(t *testing.T) {
	f := newFixture(t)
	id := f.newLocker(t, StateLocked)
	assert.ErrorIs(t, f.service.AddCallback(id, nil), apperr.ErrIllegalParameter)
	assert.ErrorIs(t, f.service.RemoveCallback(id, nil), apperr.ErrIllegalParameter)
}

func TestServiceListsLockersInIDOrder(t *testing.T) {
	f := newFixture(t)
	a := f.newLocker(t, StateLocked)
	b := f.newLocker(t, StateLocked)
	lockers := f.service.Lockers()
	require.Len(t, lockers, 2)
	assert.Equal(t, a, lockers[0].ID())
	assert.Equal(t, b, lockers[1].ID())
}

// stateIn mirrors State.in for table-driven cases.
func stateIn(s State, states []State) bool {
	return s.in(states...)
}
