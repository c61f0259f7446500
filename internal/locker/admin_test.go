package locker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

func TestCreateLockerAllocatesSequentialIDsAndDisables(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)

	cabID, err := admin.CreateLockerCabinet("North wing")
	require.NoError(t, err)
	assert.Equal(t, 1, cabID)
	cab, err := admin.LockerCabinet(cabID)
	require.NoError(t, err)
	assert.Equal(t, "North wing", cab.Location())

	first, err := admin.CreateLocker(cab, "North wing / 1")
	require.NoError(t, err)
	second, err := admin.CreateLocker(cab, "North wing / 2")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	l, ok := repo.Locker(first)
	require.True(t, ok)
	assert.Equal(t, StateDisabled, l.State())
	assert.Same(t, cab, l.Cabinet())
	assert.Zero(t, cab.Len(), "membership is explicit")
}

func TestCreateRejectsMissingArguments(t *testing.T) {
	admin := NewAdminService(NewRepository(), nil)

	_, err := admin.CreateLocker(nil, "somewhere")
	assert.ErrorIs(t, err, apperr.ErrIllegalArgument)

	_, err = admin.CreateLocker(NewCabinet(1, "x"), "")
	assert.ErrorIs(t, err, apperr.ErrIllegalArgument)

	_, err = admin.CreateLockerCabinet("  ")
	assert.ErrorIs(t, err, apperr.ErrIllegalArgument)
}

func TestRemoveUnknownIDs(t *testing.T) {
	admin := NewAdminService(NewRepository(), nil)
	assert.ErrorIs(t, admin.RemoveLocker(5), apperr.ErrIllegalParameter)
	assert.ErrorIs(t, admin.RemoveLockerCabinet(5), apperr.ErrIllegalParameter)
	_, err := admin.LockerCabinet(5)
	assert.ErrorIs(t, err, apperr.ErrIllegalParameter)
	assert.ErrorIs(t, admin.SetLockerState(5, StateActive), apperr.ErrIllegalParameter)
	assert.ErrorIs(t, admin.AddLockerToCabinet(5, NewLocker(1, nil, "x")), apperr.ErrIllegalParameter)
}

func TestRemoveLockerDeregistersSilently(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	cabID, _ := admin.CreateLockerCabinet("South")
	cab, _ := admin.LockerCabinet(cabID)
	id, err := admin.CreateLocker(cab, "South / 1")
	require.NoError(t, err)
	l, _ := repo.Locker(id)
	require.NoError(t, admin.AddLockerToCabinet(cabID, l))
	rec := NewRecorder()
	require.NoError(t, l.AddCallback(rec))

	require.NoError(t, admin.RemoveLocker(id))

	_, ok := repo.Locker(id)
	assert.False(t, ok)
	assert.Zero(t, cab.Len())
	assert.Empty(t, rec.Events())
	assert.ErrorIs(t, admin.RemoveLocker(id), apperr.ErrIllegalParameter)
}

func TestRemoveCabinetDoesNotRequireEmpty(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	cabID, _ := admin.CreateLockerCabinet("East")
	cab, _ := admin.LockerCabinet(cabID)
	id, _ := admin.CreateLocker(cab, "East / 1")
	l, _ := repo.Locker(id)
	require.NoError(t, admin.AddLockerToCabinet(cabID, l))

	require.NoError(t, admin.RemoveLockerCabinet(cabID))
	_, ok := repo.Cabinet(cabID)
	assert.False(t, ok)
	_, ok = repo.Locker(id)
	assert.True(t, ok, "lockers outlive their cabinet registration")
}

func TestAddLockerToCabinetKeysByLockerID(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	cabID, _ := admin.CreateLockerCabinet("West")
	cab, _ := admin.LockerCabinet(cabID)
	id, _ := admin.CreateLocker(cab, "West / 1")
	l, _ := repo.Locker(id)

	require.NoError(t, admin.AddLockerToCabinet(cabID, l))
	got, err := cab.Locker(id)
	require.NoError(t, err)
	assert.Same(t, l, got)
	assert.Equal(t, id, got.ID())

	assert.ErrorIs(t, admin.AddLockerToCabinet(cabID, nil), apperr.ErrIllegalParameter)
}

func TestSetLockerStateBypassesTransitions(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	cabID, _ := admin.CreateLockerCabinet("Lobby")
	cab, _ := admin.LockerCabinet(cabID)
	id, _ := admin.CreateLocker(cab, "Lobby / 1")
	l, _ := repo.Locker(id)
	rec := NewRecorder()
	require.NoError(t, l.AddCallback(rec))

	require.NoError(t, admin.SetLockerState(id, StateActive))
	require.NoError(t, admin.SetLockerState(id, StateDisabled))
	require.NoError(t, admin.SetLockerState(id, StateActive))
	assert.Equal(t, StateActive, l.State())

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, StateDisabled, events[1].State)

	require.NoError(t, admin.SetLockerState(id, StateActive))
	assert.Len(t, rec.Events(), 3, "no event without a change")

	assert.ErrorIs(t, admin.SetLockerState(id, State("BROKEN")), apperr.ErrIllegalArgument)
}

func TestDefaultListenersAttachedToNewLockers(t *testing.T) {
	repo := NewRepository()
	rec := NewRecorder()
	admin := NewAdminService(repo, nil, WithDefaultListeners(rec, nil))
	cabID, _ := admin.CreateLockerCabinet("Depot")
	cab, _ := admin.LockerCabinet(cabID)
	id, _ := admin.CreateLocker(cab, "Depot / 1")

	require.NoError(t, admin.SetLockerState(id, StateLocked))
	l, _ := repo.Locker(id)
	assert.Len(t, l.Listeners(), 1)
	assert.Equal(t, StateLocked, rec.CurrentState())
}

func TestResetClearsRepositoryButKeepsCounters(t *testing.T) {
	repo := NewRepository()
	admin := NewAdminService(repo, nil)
	cabID, _ := admin.CreateLockerCabinet("Gym")
	cab, _ := admin.LockerCabinet(cabID)
	_, _ = admin.CreateLocker(cab, "Gym / 1")

	admin.Reset()
	assert.Empty(t, repo.Lockers())
	assert.Empty(t, admin.LockerCabinets())

	next, err := admin.CreateLockerCabinet("Gym")
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestCabinetLookup(t *testing.T) {
	c := NewCabinet(4, "Roof")
	c.AddLocker(NewLocker(2, c, "Roof / 2"))
	c.AddLocker(NewLocker(1, c, "Roof / 1"))

	lockers := c.Lockers()
	require.Len(t, lockers, 2)
	assert.Equal(t, 1, lockers[0].ID())

	_, err := c.Locker(3)
	assert.ErrorIs(t, err, apperr.ErrIllegalParameter)

	c.SetLocation("Roof terrace")
	assert.Equal(t, "Roof terrace", c.Location())

	c.RemoveLocker(1)
	assert.Equal(t, 1, c.Len())
}
