package handlers

import (
	"net/http"

	"github.com/locker-pass-manager/backend/internal/auth"
	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/storage"
	"github.com/locker-pass-manager/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, HealthResponse{Status: status, DBConnected: dbConnected})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Lockers          int            `json:"lockers"`
	LockersByState   map[string]int `json:"lockers_by_state"`
	Cabinets         int            `json:"cabinets"`
	Users            int            `json:"users"`
	Tokens           int            `json:"tokens"`
	WebSocketClients int            `json:"websocket_clients"`
	JournalEvents    int64          `json:"journal_events"`
}

// Status returns a handler that provides system status information.
func Status(repo *locker.Repository, users *auth.Directory, events *storage.EventRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lockers := repo.Lockers()
		byState := make(map[string]int)
		for _, l := range lockers {
			byState[string(l.State())]++
		}

		// a failed count is reported as zero
		journalEvents, _ := events.Count(r.Context())

		writeJSON(w, http.StatusOK, StatusResponse{
			Lockers:          len(lockers),
			LockersByState:   byState,
			Cabinets:         len(repo.Cabinets()),
			Users:            len(users.Users()),
			Tokens:           users.Tokens().Len(),
			WebSocketClients: hub.ClientCount(),
			JournalEvents:    journalEvents,
		})
	}
}
