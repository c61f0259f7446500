package locker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

func TestConcurrentCreateAllocatesUniqueIDs(t *testing.T) {
	f := newFixture(t)

	const workers = 16
	const perWorker = 25
	ids := make(chan int, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := f.admin.CreateLocker(f.cabinet, "Station / slot")
				if assert.NoError(t, err) {
					ids <- id
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Len(t, f.service.Lockers(), workers*perWorker)
}

func TestConcurrentActivateSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	id := f.newLocker(t, StateLocked)
	rec := NewRecorder()
	require.NoError(t, f.service.AddCallback(id, rec))

	const workers = 32
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		won     atomic.Int32
		refused atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := f.service.ActivateLocker(id)
			switch {
			case err == nil:
				won.Add(1)
			case assert.ErrorIs(t, err, apperr.ErrIllegalState):
				refused.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, won.Load())
	assert.EqualValues(t, workers-1, refused.Load())
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, StateActive, rec.Events()[0].State)
}

// Exercised under -race: lockers are created, driven through a rental and
// removed while other goroutines list and inspect the repository.
func TestParallelLifecycleAgainstSharedRepository(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	const rounds = 20
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if !rentOnce(t, f, i%2 == 0) {
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, l := range f.service.Lockers() {
					_ = l.State()
					_ = l.Listeners()
				}
				_ = f.cabinet.Lockers()
				_ = f.admin.LockerCabinets()
			}
		}()
	}

	wg.Wait()
	close(done)
	readers.Wait()

	remaining := workers * rounds / 2
	assert.Len(t, f.service.Lockers(), remaining)
	assert.Equal(t, remaining, f.cabinet.Len())
	for _, l := range f.service.Lockers() {
		assert.Equal(t, StateLocked, l.State())
	}
}

// rentOnce provisions a locker, runs one rental on it and optionally removes it.
func rentOnce(t *testing.T, f *fixture, remove bool) bool {
	id, err := f.admin.CreateLocker(f.cabinet, "Station / slot")
	if !assert.NoError(t, err) {
		return false
	}
	l, err := f.service.Locker(id)
	if !assert.NoError(t, err) {
		return false
	}
	steps := []func() error{
		func() error { return f.admin.AddLockerToCabinet(f.cabinet.ID(), l) },
		func() error { return f.admin.SetLockerState(id, StateLocked) },
		func() error { return f.service.ActivateLocker(id) },
		func() error {
			code, err := f.service.CreateLockerPassword(id)
			if err != nil {
				return err
			}
			return f.service.UnlockLocker(id, code)
		},
		func() error { return f.service.LockLocker(id) },
	}
	if remove {
		steps = append(steps, func() error { return f.admin.RemoveLocker(id) })
	}
	for _, step := range steps {
		if !assert.NoError(t, step()) {
			return false
		}
	}
	return true
}
