package auth

import (
	"encoding/base64"
	"fmt"
	"io"
	"time"
)

// TokenTTL is how long a token stays valid after issuance.
const TokenTTL = 599 * time.Second

const tokenBytes = 32

// Token is an opaque bearer credential bound to exactly one user.
type Token struct {
	value     string
	userID    int
	createdAt time.Time
	expiresAt time.Time
}

// Value is the URL-safe string presented by clients.
func (t *Token) Value() string {
	return t.value
}

func (t *Token) UserID() int {
	return t.userID
}

func (t *Token) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Token) ExpiresAt() time.Time {
	return t.expiresAt
}

// String returns the token value.
func (t *Token) String() string {
	return t.value
}

func newTokenValue(r io.Reader) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
