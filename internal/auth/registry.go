package auth

import (
	"crypto/rand"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/apperr"
	"github.com/locker-pass-manager/backend/internal/clock"
)

// userSource resolves the users a TokenRegistry issues tokens for.
type userSource interface {
	User(id int) (*User, error)
	Users() []*User
}

// TokenRegistry keeps the token->user and user->token indexes in sync.
// Expiry is lazy: a token is only purged when something inspects it.
type TokenRegistry struct {
	users  userSource
	clock  clock.Clock
	random io.Reader
	logger *zap.SugaredLogger
	// notified for every token issued
	onIssue func()

	// serializes issuance process-wide
	issueMu sync.Mutex

	mu      sync.RWMutex
	byValue map[string]*Token
	byUser  map[int]*Token
}

func newTokenRegistry(users userSource, clk clock.Clock, logger *zap.SugaredLogger) *TokenRegistry {
	return &TokenRegistry{
		users:   users,
		clock:   clk,
		random:  rand.Reader,
		logger:  logger,
		onIssue: func() {},
		byValue: make(map[string]*Token),
		byUser:  make(map[int]*Token),
	}
}

// GenerateToken issues a token for userID. It fails with TooManyTokens when
// the user already holds a live token; an expired one is purged first.
func (r *TokenRegistry) GenerateToken(userID int) (*Token, error) {
	r.issueMu.Lock()
	defer r.issueMu.Unlock()

	if userID <= 0 {
		return nil, apperr.IllegalArgument("user id must be positive, got %d", userID)
	}
	u, err := r.users.User(userID)
	if err != nil {
		return nil, err
	}
	if held := u.Token(); held != nil {
		expired, err := r.IsExpired(held, u)
		if err != nil {
			return nil, err
		}
		if !expired {
			return nil, apperr.TooManyTokens("user with id %d already has an active token", userID)
		}
	}
	return r.issue(u)
}

// rotate revokes whatever token u holds and issues a new one. It fails with
// IllegalArgument when u was removed after the caller looked it up.
func (r *TokenRegistry) rotate(u *User) (*Token, error) {
	r.issueMu.Lock()
	defer r.issueMu.Unlock()

	if current, err := r.users.User(u.ID()); err != nil || current != u {
		return nil, apperr.IllegalArgument("user with id %d no longer exists", u.ID())
	}
	r.revoke(u)
	return r.issue(u)
}

// withIssuanceStopped runs fn while no token can be issued.
func (r *TokenRegistry) withIssuanceStopped(fn func()) {
	r.issueMu.Lock()
	defer r.issueMu.Unlock()
	fn()
}

func (r *TokenRegistry) issue(u *User) (*Token, error) {
	value, err := newTokenValue(r.random)
	if err != nil {
		return nil, err
	}
	now := r.clock.Now()
	t := &Token{
		value:     value,
		userID:    u.ID(),
		createdAt: now,
		expiresAt: now.Add(TokenTTL),
	}

	r.mu.Lock()
	r.byValue[t.value] = t
	r.byUser[u.ID()] = t
	r.mu.Unlock()
	u.setToken(t)

	r.onIssue()
	r.logger.Debugw("token issued", "user_id", u.ID(), "expires_at", t.expiresAt)
	return t, nil
}

// RemoveToken revokes the token held by userID, if any.
func (r *TokenRegistry) RemoveToken(userID int) error {
	u, err := r.users.User(userID)
	if err != nil {
		return err
	}
	r.revoke(u)
	r.logger.Debugw("token removed", "user_id", userID)
	return nil
}

func (r *TokenRegistry) revoke(u *User) {
	r.mu.Lock()
	if t, ok := r.byUser[u.ID()]; ok {
		delete(r.byValue, t.value)
		delete(r.byUser, u.ID())
	}
	r.mu.Unlock()
	u.dropToken(nil)
}

// IsExpired reports whether t, owned by u, has passed its expiry. An expired
// token is purged from both indexes and from every user still referencing it,
// so a second call for the same token fails with IllegalParameter.
func (r *TokenRegistry) IsExpired(t *Token, u *User) (bool, error) {
	if t == nil || u == nil {
		return false, apperr.IllegalParameter("token and user must be provided")
	}

	r.mu.Lock()
	stored, ok := r.byValue[t.value]
	if !ok || stored != t || t.userID != u.ID() {
		r.mu.Unlock()
		return false, apperr.IllegalParameter("token is unknown or not owned by user %d", u.ID())
	}
	if !r.clock.Now().After(t.expiresAt) {
		r.mu.Unlock()
		return false, nil
	}
	delete(r.byValue, t.value)
	if r.byUser[u.ID()] == t {
		delete(r.byUser, u.ID())
	}
	r.mu.Unlock()

	u.dropToken(t)
	for _, other := range r.users.Users() {
		other.dropToken(t)
	}
	r.logger.Debugw("token expired", "user_id", u.ID())
	return true, nil
}

// Authenticate resolves a bearer value to its user. Unknown values fail with
// IllegalParameter; expired ones are purged and fail with TokenExpired.
func (r *TokenRegistry) Authenticate(value string) (*User, error) {
	r.mu.RLock()
	t, ok := r.byValue[value]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.IllegalParameter("unknown token")
	}
	u, err := r.users.User(t.userID)
	if err != nil {
		r.purge(t)
		return nil, apperr.IllegalParameter("token owner %d no longer exists", t.userID)
	}
	expired, err := r.IsExpired(t, u)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperr.TokenExpired("token of user %d has expired", u.ID())
	}
	return u, nil
}

// purge drops t from both indexes.
func (r *TokenRegistry) purge(t *Token) {
	r.mu.Lock()
	if r.byValue[t.value] == t {
		delete(r.byValue, t.value)
	}
	if r.byUser[t.userID] == t {
		delete(r.byUser, t.userID)
	}
	r.mu.Unlock()
}

// TokenFor returns the live token held by userID.
func (r *TokenRegistry) TokenFor(userID int) (*Token, error) {
	u, err := r.users.User(userID)
	if err != nil {
		return nil, err
	}
	t := u.Token()
	if t == nil {
		return nil, apperr.IllegalParameter("user with id %d holds no token", userID)
	}
	expired, err := r.IsExpired(t, u)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperr.TokenExpired("token of user %d has expired", userID)
	}
	return t, nil
}

// Len returns the number of tokens currently indexed, expired or not.
func (r *TokenRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byValue)
}
