package locker

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

// AdminService provisions cabinets and lockers and can force locker state
// without any transition check.
type AdminService struct {
	repo   *Repository
	logger *zap.SugaredLogger

	mu            sync.Mutex
	nextLockerID  int
	nextCabinetID int

	// attached to every locker this service creates
	defaultListeners []Listener
}

// AdminOption configures an AdminService.
type AdminOption func(*AdminService)

// WithDefaultListeners attaches listeners to every newly created locker.
func WithDefaultListeners(listeners ...Listener) AdminOption {
	return func(a *AdminService) {
		for _, l := range listeners {
			if l != nil {
				a.defaultListeners = append(a.defaultListeners, l)
			}
		}
	}
}

// NewAdminService creates an admin service over repo. Ids start at 1.
func NewAdminService(repo *Repository, logger *zap.SugaredLogger, opts ...AdminOption) *AdminService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	a := &AdminService{
		repo:          repo,
		logger:        logger,
		nextLockerID:  1,
		nextCabinetID: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateLocker registers a new DISABLED locker and returns its id.
// The locker is not added to the cabinet's membership; use AddLockerToCabinet.
func (a *AdminService) CreateLocker(cabinet *Cabinet, location string) (int, error) {
	if cabinet == nil || strings.TrimSpace(location) == "" {
		return 0, apperr.IllegalArgument("cabinet and location must be provided")
	}

	a.mu.Lock()
	id := a.nextLockerID
	a.nextLockerID++
	a.mu.Unlock()

	l := NewLocker(id, cabinet, location)
	l.forceState(StateDisabled)
	for _, listener := range a.defaultListeners {
		if err := l.AddCallback(listener); err != nil {
			return 0, err
		}
	}
	a.repo.AddLocker(id, l)

	a.logger.Infow("locker created", "locker_id", id, "cabinet_id", cabinet.ID(), "location", location)
	return id, nil
}

// RemoveLocker deregisters a locker without notifying its listeners.
func (a *AdminService) RemoveLocker(id int) error {
	if _, ok := a.repo.Locker(id); !ok {
		return apperr.IllegalParameter("locker with id %d does not exist", id)
	}
	a.repo.RemoveLocker(id)
	for _, c := range a.repo.Cabinets() {
		c.RemoveLocker(id)
	}
	a.logger.Infow("locker removed", "locker_id", id)
	return nil
}

// CreateLockerCabinet registers a new empty cabinet and returns its id.
func (a *AdminService) CreateLockerCabinet(location string) (int, error) {
	if strings.TrimSpace(location) == "" {
		return 0, apperr.IllegalArgument("location must be provided")
	}

	a.mu.Lock()
	id := a.nextCabinetID
	a.nextCabinetID++
	a.mu.Unlock()

	a.repo.AddCabinet(id, NewCabinet(id, location))
	a.logger.Infow("locker cabinet created", "cabinet_id", id, "location", location)
	return id, nil
}

// RemoveLockerCabinet deregisters a cabinet. Member lockers stay registered.
func (a *AdminService) RemoveLockerCabinet(id int) error {
	if _, ok := a.repo.Cabinet(id); !ok {
		return apperr.IllegalParameter("locker cabinet with id %d does not exist", id)
	}
	a.repo.RemoveCabinet(id)
	a.logger.Infow("locker cabinet removed", "cabinet_id", id)
	return nil
}

// AddLockerToCabinet makes l a member of the cabinet with the given id.
func (a *AdminService) AddLockerToCabinet(cabinetID int, l *Locker) error {
	c, ok := a.repo.Cabinet(cabinetID)
	if !ok {
		return apperr.IllegalParameter("locker cabinet with id %d does not exist", cabinetID)
	}
	if l == nil {
		return apperr.IllegalParameter("locker is nil")
	}
	c.AddLocker(l)
	a.logger.Infow("locker added to cabinet", "cabinet_id", cabinetID, "locker_id", l.ID())
	return nil
}

// LockerCabinet returns the cabinet with the given id.
func (a *AdminService) LockerCabinet(id int) (*Cabinet, error) {
	c, ok := a.repo.Cabinet(id)
	if !ok {
		return nil, apperr.IllegalParameter("locker cabinet with id %d does not exist", id)
	}
	return c, nil
}

// LockerCabinets returns every cabinet ordered by id.
func (a *AdminService) LockerCabinets() []*Cabinet {
	return a.repo.Cabinets()
}

// SetLockerState overwrites a locker's state regardless of the current one.
// Listeners are told about the change so observers see out-of-band moves.
func (a *AdminService) SetLockerState(id int, state State) error {
	if !state.Valid() {
		return apperr.IllegalArgument("unknown locker state %q", state)
	}
	l, ok := a.repo.Locker(id)
	if !ok {
		return apperr.IllegalParameter("locker with id %d does not exist", id)
	}
	listeners, changed := l.forceState(state)
	a.logger.Infow("locker state forced", "locker_id", id, "state", state)
	if changed {
		l.notify(listeners, Event{LockerID: id, Kind: EventStateChanged, State: state, At: time.Now().UTC()})
	}
	return nil
}

// Reset clears the repository. Id counters keep counting.
func (a *AdminService) Reset() {
	a.repo.Reset()
	a.logger.Warn("locker repository reset")
}
