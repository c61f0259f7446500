package locker

import (
	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

// PasscodeGenerator mints passcodes for CreateLockerPassword.
type PasscodeGenerator interface {
	CreatePasscode() int
}

// States each user operation is allowed from. The Locker re-validates with its own rules.
var (
	unlockFrom     = []State{StateLocked, StateActive}
	lockFrom       = []State{StateUnlocked, StateActive}
	activateFrom   = []State{StateDeactivated, StateLocked}
	deactivateFrom = []State{StateActive}
	disableFrom    = []State{StateDeactivated, StateActive}
	passwordFrom   = []State{StateActive}
)

// Service is the user-facing locker API. It refuses any request whose
// target locker is not in a state the operation is valid from.
type Service struct {
	repo      *Repository
	generator PasscodeGenerator
	logger    *zap.SugaredLogger
}

// NewService creates a locker service over repo.
func NewService(repo *Repository, generator PasscodeGenerator, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		repo:      repo,
		generator: generator,
		logger:    logger,
	}
}

// AddCallback registers listener on the locker with the given id.
func (s *Service) AddCallback(id int, listener Listener) error {
	if listener == nil {
		return apperr.IllegalParameter("listener is nil")
	}
	l, err := s.Locker(id)
	if err != nil {
		return err
	}
	s.logger.Debugw("adding locker callback", "locker_id", id)
	return l.AddCallback(listener)
}

// RemoveCallback unregisters listener from the locker with the given id.
func (s *Service) RemoveCallback(id int, listener Listener) error {
	if listener == nil {
		return apperr.IllegalParameter("listener is nil")
	}
	l, err := s.Locker(id)
	if err != nil {
		return err
	}
	s.logger.Debugw("removing locker callback", "locker_id", id)
	return l.RemoveCallback(listener)
}

// Locker returns the locker with the given id.
func (s *Service) Locker(id int) (*Locker, error) {
	l, ok := s.repo.Locker(id)
	if !ok {
		return nil, apperr.IllegalParameter("locker with id %d does not exist", id)
	}
	return l, nil
}

// Lockers returns every registered locker ordered by id.
func (s *Service) Lockers() []*Locker {
	return s.repo.Lockers()
}

// LockerState returns the current state of the locker with the given id.
func (s *Service) LockerState(id int) (State, error) {
	l, err := s.Locker(id)
	if err != nil {
		return "", err
	}
	return l.State(), nil
}

// UnlockLocker opens a LOCKED or ACTIVE locker with its passcode.
func (s *Service) UnlockLocker(id, code int) error {
	l, err := s.guard(id, "unlock", unlockFrom)
	if err != nil {
		return err
	}
	if err := l.Unlock(code); err != nil {
		s.logger.Infow("locker unlock rejected", "locker_id", id, "error", err)
		return err
	}
	s.logger.Infow("locker unlocked", "locker_id", id)
	return nil
}

// LockLocker closes an UNLOCKED or ACTIVE locker.
func (s *Service) LockLocker(id int) error {
	l, err := s.guard(id, "lock", lockFrom)
	if err != nil {
		return err
	}
	if err := l.Lock(); err != nil {
		return err
	}
	s.logger.Infow("locker locked", "locker_id", id)
	return nil
}

// ActivateLocker claims a DEACTIVATED or LOCKED locker for a rental.
func (s *Service) ActivateLocker(id int) error {
	l, err := s.guard(id, "activate", activateFrom)
	if err != nil {
		return err
	}
	if err := l.Activate(); err != nil {
		return err
	}
	s.logger.Infow("locker activated", "locker_id", id)
	return nil
}

// DeactivateLocker releases an ACTIVE locker.
func (s *Service) DeactivateLocker(id int) error {
	l, err := s.guard(id, "deactivate", deactivateFrom)
	if err != nil {
		return err
	}
	if err := l.Deactivate(); err != nil {
		return err
	}
	s.logger.Infow("locker deactivated", "locker_id", id)
	return nil
}

// DisableLocker takes a DEACTIVATED or ACTIVE locker out of service.
func (s *Service) DisableLocker(id int) error {
	l, err := s.guard(id, "disable", disableFrom)
	if err != nil {
		return err
	}
	if err := l.Disable(); err != nil {
		return err
	}
	s.logger.Infow("locker disabled", "locker_id", id)
	return nil
}

// SetLockerPassword sets the passcode of an ACTIVE locker.
func (s *Service) SetLockerPassword(id, code int) error {
	l, err := s.guard(id, "set password", passwordFrom)
	if err != nil {
		return err
	}
	if err := l.SetPassword(code); err != nil {
		return err
	}
	s.logger.Infow("locker password set", "locker_id", id)
	return nil
}

// CreateLockerPassword mints a passcode for an ACTIVE locker and returns it.
func (s *Service) CreateLockerPassword(id int) (int, error) {
	l, err := s.guard(id, "create password", passwordFrom)
	if err != nil {
		return 0, err
	}
	code := s.generator.CreatePasscode()
	if err := l.SetPassword(code); err != nil {
		return 0, err
	}
	s.logger.Infow("locker password created", "locker_id", id)
	return code, nil
}

// guard resolves id and checks the locker's current state against allowed.
func (s *Service) guard(id int, op string, allowed []State) (*Locker, error) {
	l, err := s.Locker(id)
	if err != nil {
		return nil, err
	}
	if current := l.State(); !current.in(allowed...) {
		s.logger.Debugw("locker operation refused", "locker_id", id, "op", op, "state", current)
		return nil, apperr.IllegalState("cannot %s locker %d in state %s, allowed from %v", op, id, current, allowed)
	}
	return l, nil
}
