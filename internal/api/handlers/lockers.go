package handlers

import (
	"errors"
	"net/http"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/apperr"
	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/pin"
)

// LockerResponse represents a locker in API responses. Passcodes are never included.
type LockerResponse struct {
	ID        int    `json:"id"`
	CabinetID int    `json:"cabinet_id,omitempty"`
	Location  string `json:"location"`
	State     string `json:"state"`
}

func newLockerResponse(l *locker.Locker) LockerResponse {
	resp := LockerResponse{
		ID:       l.ID(),
		Location: l.Location(),
		State:    string(l.State()),
	}
	if c := l.Cabinet(); c != nil {
		resp.CabinetID = c.ID()
	}
	return resp
}

// CodeRequest carries a passcode.
type CodeRequest struct {
	Code int `json:"code"`
}

// ListLockers returns all lockers.
func ListLockers(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := svc.Lockers()
		resp := make([]LockerResponse, 0, len(all))
		for _, l := range all {
			resp = append(resp, newLockerResponse(l))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetLocker returns one locker.
func GetLocker(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		l, err := svc.Locker(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newLockerResponse(l))
	}
}

// GetLockerState returns only the state of a locker.
func GetLockerState(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		state, err := svc.LockerState(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"locker_id": id, "state": state})
	}
}

// UnlockLocker opens a locker with its passcode.
func UnlockLocker(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req CodeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Code == 0 {
			writeCodeValidation(w, "code is required")
			return
		}
		if _, err := svc.Locker(id); err != nil {
			middleware.WriteAppError(w, err)
			return
		}

		// the locker exists, so an IllegalParameter here is a wrong passcode
		err := svc.UnlockLocker(id, req.Code)
		if errors.Is(err, apperr.ErrIllegalParameter) {
			middleware.WriteError(w, http.StatusForbidden, middleware.ErrForbidden, err.Error())
			return
		}
		transition(w, svc, id, func() error { return err })
	}
}

// LockLocker closes a locker.
func LockLocker(svc *locker.Service) http.HandlerFunc {
	return simpleTransition(svc, svc.LockLocker)
}

// ActivateLocker claims a locker for a rental.
func ActivateLocker(svc *locker.Service) http.HandlerFunc {
	return simpleTransition(svc, svc.ActivateLocker)
}

// DeactivateLocker releases a rented locker.
func DeactivateLocker(svc *locker.Service) http.HandlerFunc {
	return simpleTransition(svc, svc.DeactivateLocker)
}

// DisableLocker takes a locker out of service.
func DisableLocker(svc *locker.Service) http.HandlerFunc {
	return simpleTransition(svc, svc.DisableLocker)
}

// SetLockerPassword sets a caller-chosen passcode.
func SetLockerPassword(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req CodeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := pin.ValidatePasscode(req.Code); err != nil {
			writeCodeValidation(w, err.Error())
			return
		}
		if err := svc.SetLockerPassword(id, req.Code); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateLockerPassword generates a passcode and returns it once.
func CreateLockerPassword(svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		code, err := svc.CreateLockerPassword(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"locker_id": id, "code": code})
	}
}

// writeCodeValidation rejects a malformed passcode before any locker is touched.
func writeCodeValidation(w http.ResponseWriter, message string) {
	middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, message,
		map[string]any{"field": "code", "min_digits": pin.DefaultLength})
}

func simpleTransition(svc *locker.Service, op func(id int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		transition(w, svc, id, func() error { return op(id) })
	}
}

// transition runs op and answers with the locker as it is afterwards.
func transition(w http.ResponseWriter, svc *locker.Service, id int, op func() error) {
	if err := op(); err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	l, err := svc.Locker(id)
	if err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLockerResponse(l))
}
