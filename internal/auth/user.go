// Package auth manages user accounts and the single short-lived token each
// user may hold.
package auth

import "sync"

// User is an account in the Directory. Id, address and role never change.
type User struct {
	id      int
	address string
	admin   bool

	mu           sync.Mutex
	passwordHash string
	token        *Token
}

func (u *User) ID() int {
	return u.id
}

func (u *User) Address() string {
	return u.address
}

// IsAdmin reports whether the user may use the administrative API.
func (u *User) IsAdmin() bool {
	return u.admin
}

// Token returns the token the user currently holds, or nil.
// It does not check expiry; use TokenRegistry.IsExpired for that.
func (u *User) Token() *Token {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.token
}

func (u *User) hash() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.passwordHash
}

func (u *User) setHash(h string) {
	u.mu.Lock()
	u.passwordHash = h
	u.mu.Unlock()
}

func (u *User) setToken(t *Token) {
	u.mu.Lock()
	u.token = t
	u.mu.Unlock()
}

// dropToken clears the user's token if it is t. A nil t clears any token.
func (u *User) dropToken(t *Token) {
	u.mu.Lock()
	if t == nil || u.token == t {
		u.token = nil
	}
	u.mu.Unlock()
}
