package handlers

import (
	"errors"
	"net/http"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/apperr"
	"github.com/locker-pass-manager/backend/internal/auth"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int    `json:"id"`
	Address  string `json:"address"`
	Admin    bool   `json:"admin"`
	HasToken bool   `json:"has_token"`
}

func newUserResponse(u *auth.User) UserResponse {
	return UserResponse{
		ID:       u.ID(),
		Address:  u.Address(),
		Admin:    u.IsAdmin(),
		HasToken: u.Token() != nil,
	}
}

// lookupUser resolves the {id} route variable, writing a 404 for unknown users.
func lookupUser(w http.ResponseWriter, r *http.Request, users *auth.Directory) (*auth.User, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	u, err := users.User(id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
		return nil, false
	}
	return u, true
}

// ListUsers returns all users.
func ListUsers(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := users.Users()
		resp := make([]UserResponse, 0, len(all))
		for _, u := range all {
			resp = append(resp, newUserResponse(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateUser adds a user account.
func CreateUser(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address  string `json:"address"`
			Password string `json:"password"`
			Admin    bool   `json:"admin"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		id, err := users.CreateUser(req.Address, req.Password, req.Admin)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		u, err := users.User(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newUserResponse(u))
	}
}

// GetUser returns one user.
func GetUser(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := lookupUser(w, r, users)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(u))
	}
}

// DeleteUser removes a user and revokes its token.
func DeleteUser(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := lookupUser(w, r, users)
		if !ok {
			return
		}
		if caller := middleware.UserFrom(r.Context()); caller != nil && caller.ID() == u.ID() {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Cannot delete the calling user")
			return
		}
		if err := users.RemoveUser(u.ID()); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GenerateUserToken issues a token for a user that holds none.
func GenerateUserToken(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := lookupUser(w, r, users)
		if !ok {
			return
		}
		token, err := users.Tokens().GenerateToken(u.ID())
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newTokenResponse(token, true))
	}
}

// GetUserToken describes the live token a user holds, without its value.
func GetUserToken(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := lookupUser(w, r, users)
		if !ok {
			return
		}
		token, err := users.Tokens().TokenFor(u.ID())
		if errors.Is(err, apperr.ErrTokenExpired) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
			return
		}
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTokenResponse(token, false))
	}
}

// RevokeUserToken removes the token a user holds.
func RevokeUserToken(users *auth.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := lookupUser(w, r, users)
		if !ok {
			return
		}
		if err := users.Tokens().RemoveToken(u.ID()); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
