package handlers

import (
	"net/http"
	"time"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/auth"
)

// CredentialsRequest is the body of login and credential checks.
type CredentialsRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// TokenResponse describes an issued token. Value is only set when the
// token is handed to its owner.
type TokenResponse struct {
	Token     string    `json:"token,omitempty"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenResponse(t *auth.Token, withValue bool) TokenResponse {
	resp := TokenResponse{
		UserID:    t.UserID(),
		CreatedAt: t.CreatedAt(),
		ExpiresAt: t.ExpiresAt(),
	}
	if withValue {
		resp.Token = t.Value()
	}
	return resp
}

// Login exchanges credentials for a fresh bearer token.
func Login(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if !decodeBody(w, r, &req) {
			return
		}

		token, err := users.Login(req.Address, req.Password)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newTokenResponse(token, true))
	}
}

// CheckCredentials reports whether the credentials are valid without logging in.
func CheckCredentials(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ok, err := users.CheckCredentials(req.Address, req.Password)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
	}
}

// Logout revokes the caller's token.
func Logout(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFrom(r.Context())
		if err := users.Tokens().RemoveToken(user.ID()); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChangePassword replaces the caller's password after checking the current one.
func ChangePassword(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		user := middleware.UserFrom(r.Context())
		ok, err := users.CheckCredentials(user.Address(), req.CurrentPassword)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		if !ok {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Current password is incorrect")
			return
		}

		if err := users.ChangePassword(user.Address(), req.NewPassword); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Me returns the authenticated user.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newUserResponse(middleware.UserFrom(r.Context())))
	}
}
