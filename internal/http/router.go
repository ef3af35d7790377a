package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"access-console/internal/config"
	"access-console/internal/handlers"
	"access-console/internal/middleware"
)

// Handlers groups the route handlers the router mounts.
type Handlers struct {
	Session     *handlers.SessionHandler
	Dashboard   *handlers.DashboardHandler
	Connection  *handlers.ConnectionHandler
	Role        *handlers.RoleHandler
	ShareAccess *handlers.ShareAccessHandler
	Access      *handlers.AccessHandler
	Group       *handlers.GroupHandler
	BankDetails *handlers.BankDetailsHandler
	Report      *handlers.ReportHandler
	AuditLog    *handlers.AuditLogHandler
	Websocket   *handlers.WebsocketHandler
	Health      *handlers.HealthHandler
}

// NewRouter wires every console route. The returned handler carries the
// global middleware chain.
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *middleware.AuthMiddleware) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Session creation is the only public API route
	r.HandleFunc("/api/session", h.Session.Create).Methods("POST")

	// Websocket authenticates with ?token=
	r.Handle("/ws", authMiddleware.Authenticate(http.HandlerFunc(h.Websocket.Serve))).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/session", h.Session.Get).Methods("GET")
	api.HandleFunc("/session", h.Session.Delete).Methods("DELETE")
	api.HandleFunc("/dashboard", h.Dashboard.Resolve).Methods("GET")

	// Connections
	api.HandleFunc("/connections", h.Connection.List).Methods("GET")
	api.HandleFunc("/connections/refresh", h.Connection.Refresh).Methods("POST")
	api.HandleFunc("/connections/search", h.Connection.Search).Methods("GET")
	api.HandleFunc("/connections/select", h.Connection.Select).Methods("POST")

	api.HandleFunc("/roles", h.Role.List).Methods("GET")

	// Share access
	api.HandleFunc("/share-access", h.ShareAccess.Get).Methods("GET")
	api.HandleFunc("/share-access", h.ShareAccess.Close).Methods("DELETE")
	api.HandleFunc("/share-access/open", h.ShareAccess.Open).Methods("POST")
	api.HandleFunc("/share-access/toggle", h.ShareAccess.Toggle).Methods("POST")
	api.HandleFunc("/share-access/select-all", h.ShareAccess.SelectAll).Methods("POST")
	api.HandleFunc("/share-access/submit", h.ShareAccess.Submit).Methods("POST")

	// Internal users
	api.HandleFunc("/internal-users", h.Access.List).Methods("GET")
	api.HandleFunc("/internal-users", h.Access.Create).Methods("POST")
	api.HandleFunc("/internal-users/{email}", h.Access.Remove).Methods("DELETE")
	api.HandleFunc("/internal-users/{email}/edit", h.Access.GetEdit).Methods("GET")
	api.HandleFunc("/internal-users/{email}/edit", h.Access.OpenEdit).Methods("POST")
	api.HandleFunc("/internal-users/{email}/edit/toggle", h.Access.ToggleCompany).Methods("POST")
	api.HandleFunc("/internal-users/{email}/edit/select-all", h.Access.SelectAll).Methods("POST")
	api.HandleFunc("/internal-users/{email}/edit/filter", h.Access.SetFilter).Methods("POST")
	api.HandleFunc("/internal-users/{email}/edit/settings", h.Access.SetSettings).Methods("POST")
	api.HandleFunc("/internal-users/{email}/edit/save", h.Access.SaveEdit).Methods("POST")

	// Group assignment, keyed by upstream user id
	api.HandleFunc("/internal-users/{id}/groups/open", h.Group.Open).Methods("POST")
	api.HandleFunc("/internal-users/{id}/groups/toggle", h.Group.Toggle).Methods("POST")
	api.HandleFunc("/internal-users/{id}/groups/filter", h.Group.Filter).Methods("GET")
	api.HandleFunc("/internal-users/{id}/groups/save", h.Group.Save).Methods("POST")

	// Admin only
	admin := func(f http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAdmin(f).ServeHTTP
	}
	api.HandleFunc("/bank-details", admin(h.BankDetails.List)).Methods("GET")
	api.HandleFunc("/bank-details", admin(h.BankDetails.Create)).Methods("POST")
	api.HandleFunc("/bank-details/{id}", admin(h.BankDetails.Update)).Methods("PUT")
	api.HandleFunc("/reports/access.pdf", admin(h.Report.AccessPDF)).Methods("GET")
	api.HandleFunc("/reports/access.csv", admin(h.Report.AccessCSV)).Methods("GET")
	api.HandleFunc("/reports/access/export", admin(h.Report.Export)).Methods("POST")
	api.HandleFunc("/audit-logs", admin(h.AuditLog.List)).Methods("GET")

	var handler http.Handler = r
	handler = middleware.RequestLogger(handler)
	handler = middleware.NewCORS(cfg)(handler)
	handler = middleware.PanicRecovery(handler)
	return handler
}
