package auth

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/apperr"
	"github.com/locker-pass-manager/backend/internal/clock"
)

// Observer is told about login attempts and token issuance.
type Observer interface {
	LoginAttempted(ok bool)
	TokenIssued()
}

// Option configures a Directory.
type Option func(*Directory)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h PasswordHasher) Option {
	return func(d *Directory) {
		if h != nil {
			d.hasher = h
		}
	}
}

// WithClock sets the clock used for token timestamps.
func WithClock(c clock.Clock) Option {
	return func(d *Directory) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(d *Directory) {
		if o != nil {
			d.observer = o
		}
	}
}

// Directory stores users keyed by id, with unique addresses.
type Directory struct {
	hasher   PasswordHasher
	clock    clock.Clock
	observer Observer
	logger   *zap.SugaredLogger
	tokens   *TokenRegistry

	mu     sync.RWMutex
	users  map[int]*User
	nextID int
}

// NewDirectory creates an empty directory with its own TokenRegistry.
func NewDirectory(logger *zap.SugaredLogger, opts ...Option) *Directory {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	d := &Directory{
		hasher: BcryptHasher{},
		clock:  clock.Real{},
		logger: logger,
		users:  make(map[int]*User),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.tokens = newTokenRegistry(d, d.clock, logger)
	if d.observer != nil {
		d.tokens.onIssue = d.observer.TokenIssued
	}
	return d
}

// Tokens returns the registry issuing tokens for this directory's users.
func (d *Directory) Tokens() *TokenRegistry {
	return d.tokens
}

// CreateUser adds a user and returns its id.
func (d *Directory) CreateUser(address, password string, admin bool) (int, error) {
	address = strings.TrimSpace(address)
	if address == "" || password == "" {
		return 0, apperr.IllegalArgument("address and password must be provided")
	}
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.address == address {
			return 0, apperr.IllegalArgument("a user with address %q already exists", address)
		}
	}
	id := d.nextID
	d.nextID++
	d.users[id] = &User{id: id, address: address, admin: admin, passwordHash: hash}

	d.logger.Infow("user created", "user_id", id, "address", address, "admin", admin)
	return id, nil
}

// Login checks the credentials and issues a fresh token, revoking any
// token the user held before.
func (d *Directory) Login(address, password string) (*Token, error) {
	if strings.TrimSpace(address) == "" || password == "" {
		return nil, apperr.IllegalArgument("address and password must be provided")
	}
	u := d.byAddress(strings.TrimSpace(address))
	if u == nil || !d.hasher.Verify(u.hash(), password) {
		d.loginAttempted(false)
		d.logger.Infow("login rejected", "address", address)
		return nil, apperr.WrongLoginCredentials("login credentials are incorrect")
	}
	t, err := d.tokens.rotate(u)
	if errors.Is(err, apperr.ErrIllegalArgument) {
		// removed while logging in
		d.loginAttempted(false)
		return nil, apperr.WrongLoginCredentials("login credentials are incorrect")
	}
	if err != nil {
		return nil, err
	}
	d.loginAttempted(true)
	d.logger.Infow("user logged in", "user_id", u.ID())
	return t, nil
}

func (d *Directory) loginAttempted(ok bool) {
	if d.observer != nil {
		d.observer.LoginAttempted(ok)
	}
}

// CheckCredentials reports whether address and password match a user.
func (d *Directory) CheckCredentials(address, password string) (bool, error) {
	if strings.TrimSpace(address) == "" || password == "" {
		return false, apperr.IllegalArgument("address and password must be provided")
	}
	u := d.byAddress(strings.TrimSpace(address))
	if u == nil {
		return false, nil
	}
	return d.hasher.Verify(u.hash(), password), nil
}

// ChangePassword replaces the password of the user with the given address.
func (d *Directory) ChangePassword(address, newPassword string) error {
	if strings.TrimSpace(address) == "" || newPassword == "" {
		return apperr.IllegalArgument("address and new password must be provided")
	}
	u := d.byAddress(strings.TrimSpace(address))
	if u == nil {
		return apperr.IllegalArgument("no user found with address %q", address)
	}
	hash, err := d.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	u.setHash(hash)
	d.logger.Infow("password changed", "user_id", u.ID())
	return nil
}

// User returns the user with the given id.
func (d *Directory) User(id int) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, apperr.IllegalArgument("no user found with id %d", id)
	}
	return u, nil
}

// UserByAddress returns the user with the given address.
func (d *Directory) UserByAddress(address string) (*User, error) {
	u := d.byAddress(strings.TrimSpace(address))
	if u == nil {
		return nil, apperr.IllegalArgument("no user found with address %q", address)
	}
	return u, nil
}

func (d *Directory) byAddress(address string) *User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.address == address {
			return u
		}
	}
	return nil
}

// Users returns every user ordered by id.
func (d *Directory) Users() []*User {
	d.mu.RLock()
	out := make([]*User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// RemoveUser deletes a user and revokes its token. No token can be issued
// for the user once it is gone, even by a login that already looked it up.
func (d *Directory) RemoveUser(id int) error {
	var err error
	d.tokens.withIssuanceStopped(func() {
		d.mu.Lock()
		u, ok := d.users[id]
		delete(d.users, id)
		d.mu.Unlock()

		if !ok {
			err = apperr.IllegalArgument("no user found with id %d", id)
			return
		}
		d.tokens.revoke(u)
	})
	if err != nil {
		return err
	}

	d.logger.Infow("user removed", "user_id", id)
	return nil
}
