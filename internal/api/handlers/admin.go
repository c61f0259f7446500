package handlers

import (
	"net/http"
	"strconv"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/storage"
	ws "github.com/locker-pass-manager/backend/internal/websocket"
)

// CabinetResponse represents a cabinet in API responses.
type CabinetResponse struct {
	ID        int    `json:"id"`
	Location  string `json:"location"`
	LockerIDs []int  `json:"locker_ids"`
}

func newCabinetResponse(c *locker.Cabinet) CabinetResponse {
	members := c.Lockers()
	ids := make([]int, 0, len(members))
	for _, l := range members {
		ids = append(ids, l.ID())
	}
	return CabinetResponse{ID: c.ID(), Location: c.Location(), LockerIDs: ids}
}

// ListCabinets returns all cabinets.
func ListCabinets(admin *locker.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := admin.LockerCabinets()
		resp := make([]CabinetResponse, 0, len(all))
		for _, c := range all {
			resp = append(resp, newCabinetResponse(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateCabinet registers a cabinet.
func CreateCabinet(admin *locker.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Location string `json:"location"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		id, err := admin.CreateLockerCabinet(req.Location)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		c, err := admin.LockerCabinet(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newCabinetResponse(c))
	}
}

// GetCabinet returns one cabinet with its member lockers.
func GetCabinet(admin *locker.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, err := admin.LockerCabinet(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCabinetResponse(c))
	}
}

// DeleteCabinet deregisters a cabinet.
func DeleteCabinet(admin *locker.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := admin.RemoveLockerCabinet(id); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddLockerToCabinet makes an existing locker a cabinet member.
func AddLockerToCabinet(admin *locker.AdminService, svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cabinetID, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			LockerID int `json:"locker_id"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		l, err := svc.Locker(req.LockerID)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		if err := admin.AddLockerToCabinet(cabinetID, l); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		c, err := admin.LockerCabinet(cabinetID)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCabinetResponse(c))
	}
}

// CreateLocker provisions a DISABLED locker in a cabinet and adds it to the
// cabinet's members.
func CreateLocker(admin *locker.AdminService, svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CabinetID int    `json:"cabinet_id"`
			Location  string `json:"location"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		var cabinet *locker.Cabinet
		if req.CabinetID != 0 {
			c, err := admin.LockerCabinet(req.CabinetID)
			if err != nil {
				middleware.WriteAppError(w, err)
				return
			}
			cabinet = c
		}

		id, err := admin.CreateLocker(cabinet, req.Location)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		l, err := svc.Locker(id)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		if err := admin.AddLockerToCabinet(cabinet.ID(), l); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newLockerResponse(l))
	}
}

// DeleteLocker deregisters a locker.
func DeleteLocker(admin *locker.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := admin.RemoveLocker(id); err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetLockerState forces a locker into any state.
func SetLockerState(admin *locker.AdminService, svc *locker.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			State string `json:"state"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		state, err := locker.ParseState(req.State)
		if err != nil {
			middleware.WriteAppError(w, err)
			return
		}
		if err := admin.SetLockerState(id, state); err != nil {
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
}

// ListLockerEvents returns the journal of a locker, newest first.
// The journal outlives the locker, so unknown ids yield an empty list.
func ListLockerEvents(events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid limit")
				return
			}
			limit = n
		}

		list, err := events.ListByLocker(r.Context(), id, limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query locker events")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// Reset clears every locker and cabinet and tells connected clients.
func Reset(admin *locker.AdminService, hub *ws.Hub) http.HandlerFunc {
	broadcaster := ws.NewBroadcaster(hub)
	return func(w http.ResponseWriter, r *http.Request) {
		admin.Reset()
		broadcaster.Reset()
		w.WriteHeader(http.StatusNoContent)
	}
}
