package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/locker-pass-manager/backend/internal/auth"
)

// TokenQueryParam lets browser WebSocket clients, which cannot set headers,
// pass their bearer token.
const TokenQueryParam = "access_token"

// RequireToken rejects requests without a live bearer token and stores the
// authenticated user in the request context.
func RequireToken(tokens *auth.TokenRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := bearerToken(r)
			if value == "" {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Missing bearer token")
				return
			}
			user, err := tokens.Authenticate(value)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects users without the admin role. It must run after RequireToken.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFrom(r.Context())
		if user == nil {
			WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Missing bearer token")
			return
		}
		if !user.IsAdmin() {
			WriteError(w, http.StatusForbidden, ErrForbidden, "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the user RequireToken authenticated, or nil.
func UserFrom(ctx context.Context) *auth.User {
	u, _ := ctx.Value(userKey).(*auth.User)
	return u
}

// TokenFrom returns the bearer value RequireToken accepted, or "".
func TokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	return r.URL.Query().Get(TokenQueryParam)
}
