package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"treasury-backend/internal/handlers"
	"treasury-backend/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Imports       *handlers.ImportHandler
	Collections   *handlers.CollectionHandler
	Members       *handlers.MemberHandler
	Ledger        *handlers.LedgerHandler
	Notifications *handlers.NotificationHandler
	Assistant     *handlers.AssistantHandler
	Health        *handlers.HealthHandler
	Realtime      http.HandlerFunc
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()

	// Health checks and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")

	// Websocket change feed
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("", h.Realtime).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/profile", h.Auth.Profile).Methods("GET")
	api.HandleFunc("/profile", h.Auth.UpdateProfile).Methods("PUT")

	// Spreadsheet imports
	api.HandleFunc("/imports", h.Imports.Upload).Methods("POST")
	api.HandleFunc("/imports/template", h.Imports.Template).Methods("GET")
	api.HandleFunc("/imports/{id}", h.Imports.Get).Methods("GET")
	api.HandleFunc("/imports/{id}", h.Imports.Cancel).Methods("DELETE")
	api.HandleFunc("/imports/{id}/confirm", h.Imports.Confirm).Methods("POST")

	// Collections
	api.HandleFunc("/collections", h.Collections.List).Methods("GET")
	api.HandleFunc("/collections", h.Collections.Create).Methods("POST")
	api.HandleFunc("/collections/delete", h.Collections.DeleteMany).Methods("POST")
	api.HandleFunc("/collections/{id}", h.Collections.Get).Methods("GET")
	api.HandleFunc("/collections/{id}", h.Collections.Update).Methods("PUT")
	api.HandleFunc("/collections/{id}/remit", h.Collections.Remit).Methods("POST")
	api.HandleFunc("/collections/{id}/mark-all", h.Collections.MarkAll).Methods("POST")
	api.HandleFunc("/collections/{id}/payments/{member_id}", h.Collections.SetPayment).Methods("PUT")
	api.HandleFunc("/collections/{id}/members", h.Collections.Members).Methods("GET")
	api.HandleFunc("/collections/{id}/export.xlsx", h.Collections.ExportXLSX).Methods("GET")
	api.HandleFunc("/collections/{id}/export.pdf", h.Collections.ExportPDF).Methods("GET")

	// Members
	api.HandleFunc("/members", h.Members.List).Methods("GET")
	api.HandleFunc("/members", h.Members.Create).Methods("POST")
	api.HandleFunc("/members/{id}", h.Members.Delete).Methods("DELETE")
	api.HandleFunc("/members/{id}/ledger", h.Members.Ledger).Methods("GET")

	// Ledger projections
	api.HandleFunc("/ledger/dashboard", h.Ledger.Dashboard).Methods("GET")
	api.HandleFunc("/ledger/cash-on-hand", h.Ledger.CashOnHand).Methods("GET")
	api.HandleFunc("/ledger/outstanding", h.Ledger.Outstanding).Methods("GET")
	api.HandleFunc("/ledger/history", h.Ledger.History).Methods("GET")

	// Notifications
	api.HandleFunc("/notifications", h.Notifications.List).Methods("GET")
	api.HandleFunc("/notifications/read-all", h.Notifications.MarkAllRead).Methods("POST")
	api.HandleFunc("/notifications/{id}/read", h.Notifications.MarkRead).Methods("POST")
	api.HandleFunc("/settings/notifications", h.Notifications.GetSettings).Methods("GET")
	api.HandleFunc("/settings/notifications", h.Notifications.UpdateSettings).Methods("PUT")

	// Assistant
	api.HandleFunc("/assistant", h.Assistant.Ask).Methods("POST")

	return r
}
