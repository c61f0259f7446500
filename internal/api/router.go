// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/api/handlers"
	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/auth"
	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/metrics"
	"github.com/locker-pass-manager/backend/internal/storage"
	"github.com/locker-pass-manager/backend/internal/websocket"
)

// Services are the dependencies the routes are served from.
type Services struct {
	DB         *storage.DB
	Events     *storage.EventRepository
	Repository *locker.Repository
	Lockers    *locker.Service
	Admin      *locker.AdminService
	Users      *auth.Directory
	Hub        *websocket.Hub
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.ErrorRecovery(logger))

	r.Handle("/metrics", s.Metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")

	// Public auth endpoints
	api.HandleFunc("/auth/login", handlers.Login(s.Users)).Methods("POST")
	api.HandleFunc("/auth/check", handlers.CheckCredentials(s.Users)).Methods("POST")

	// Everything below needs a bearer token
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.RequireToken(s.Users.Tokens()))

	authed.HandleFunc("/status", handlers.Status(s.Repository, s.Users, s.Events, s.Hub)).Methods("GET")
	authed.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub, s.Users.Tokens(), logger)).Methods("GET")

	authed.HandleFunc("/auth/logout", handlers.Logout(s.Users)).Methods("POST")
	authed.HandleFunc("/auth/password", handlers.ChangePassword(s.Users)).Methods("PUT")
	authed.HandleFunc("/auth/me", handlers.Me()).Methods("GET")

	// Locker endpoints
	authed.HandleFunc("/lockers", handlers.ListLockers(s.Lockers)).Methods("GET")
	authed.HandleFunc("/lockers/{id}", handlers.GetLocker(s.Lockers)).Methods("GET")
	authed.HandleFunc("/lockers/{id}/state", handlers.GetLockerState(s.Lockers)).Methods("GET")
	authed.HandleFunc("/lockers/{id}/unlock", handlers.UnlockLocker(s.Lockers)).Methods("POST")
	authed.HandleFunc("/lockers/{id}/lock", handlers.LockLocker(s.Lockers)).Methods("POST")
	authed.HandleFunc("/lockers/{id}/activate", handlers.ActivateLocker(s.Lockers)).Methods("POST")
	authed.HandleFunc("/lockers/{id}/deactivate", handlers.DeactivateLocker(s.Lockers)).Methods("POST")
	authed.HandleFunc("/lockers/{id}/disable", handlers.DisableLocker(s.Lockers)).Methods("POST")
	authed.HandleFunc("/lockers/{id}/password", handlers.SetLockerPassword(s.Lockers)).Methods("PUT")
	authed.HandleFunc("/lockers/{id}/password", handlers.CreateLockerPassword(s.Lockers)).Methods("POST")

	// Admin-only endpoints
	admin := authed.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/users", handlers.ListUsers(s.Users)).Methods("GET")
	admin.HandleFunc("/users", handlers.CreateUser(s.Users)).Methods("POST")
	admin.HandleFunc("/users/{id}", handlers.GetUser(s.Users)).Methods("GET")
	admin.HandleFunc("/users/{id}", handlers.DeleteUser(s.Users)).Methods("DELETE")
	admin.HandleFunc("/users/{id}/token", handlers.GenerateUserToken(s.Users)).Methods("POST")
	admin.HandleFunc("/users/{id}/token", handlers.GetUserToken(s.Users)).Methods("GET")
	admin.HandleFunc("/users/{id}/token", handlers.RevokeUserToken(s.Users)).Methods("DELETE")

	admin.HandleFunc("/admin/cabinets", handlers.ListCabinets(s.Admin)).Methods("GET")
	admin.HandleFunc("/admin/cabinets", handlers.CreateCabinet(s.Admin)).Methods("POST")
	admin.HandleFunc("/admin/cabinets/{id}", handlers.GetCabinet(s.Admin)).Methods("GET")
	admin.HandleFunc("/admin/cabinets/{id}", handlers.DeleteCabinet(s.Admin)).Methods("DELETE")
	admin.HandleFunc("/admin/cabinets/{id}/lockers", handlers.AddLockerToCabinet(s.Admin, s.Lockers)).Methods("POST")
	admin.HandleFunc("/admin/lockers", handlers.CreateLocker(s.Admin, s.Lockers)).Methods("POST")
	admin.HandleFunc("/admin/lockers/{id}", handlers.DeleteLocker(s.Admin)).Methods("DELETE")
	admin.HandleFunc("/admin/lockers/{id}/state", handlers.SetLockerState(s.Admin, s.Lockers)).Methods("PUT")
	admin.HandleFunc("/admin/lockers/{id}/events", handlers.ListLockerEvents(s.Events)).Methods("GET")
	admin.HandleFunc("/admin/reset", handlers.Reset(s.Admin, s.Hub)).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Route not found")
	})

	return r
}
