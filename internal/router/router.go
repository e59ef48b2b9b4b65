package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emailbuilder/emailbuilder/internal/auth"
	"github.com/emailbuilder/emailbuilder/internal/handler"
	"github.com/emailbuilder/emailbuilder/internal/middleware"
)

// Options carries the pieces the router wires around the handlers
type Options struct {
	Tokens         *auth.TokenService
	APIKeys        *auth.APIKeyVerifier
	AllowedOrigins []string
	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer
}

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, opts Options) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/v1/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"EmailBuilder API v1","version":"` + handler.Version + `"}`))
	})

	// Everything below requires an admin token or API key. The per-IP limit
	// wraps Auth so rejected credentials still count against it.
	authLimit := mw.AuthRateLimit()
	checkAuth := mw.Auth(opts.Tokens, opts.APIKeys)
	authMw := func(next http.Handler) http.Handler {
		return authLimit(checkAuth(next))
	}
	sendRateLimit := mw.SendRateLimit()

	// Templates
	mux.Handle("GET /api/v1/templates", authMw(http.HandlerFunc(h.ListTemplates)))
	mux.Handle("POST /api/v1/templates", authMw(http.HandlerFunc(h.CreateTemplate)))
	mux.Handle("POST /api/v1/templates/preview", authMw(http.HandlerFunc(h.PreviewTemplate)))
	mux.Handle("GET /api/v1/templates/{id}", authMw(http.HandlerFunc(h.GetTemplate)))
	mux.Handle("PUT /api/v1/templates/{id}", authMw(http.HandlerFunc(h.UpdateTemplate)))
	mux.Handle("DELETE /api/v1/templates/{id}", authMw(http.HandlerFunc(h.DeleteTemplate)))
	mux.Handle("GET /api/v1/templates/{id}/history", authMw(http.HandlerFunc(h.TemplateHistory)))

	// Rendering and delivery by key
	mux.Handle("POST /api/v1/templates/{key}/render", authMw(http.HandlerFunc(h.RenderTemplate)))
	mux.Handle("POST /api/v1/templates/{key}/send", authMw(sendRateLimit(http.HandlerFunc(h.SendTemplate))))

	// Global header/footer defaults
	mux.Handle("GET /api/v1/global-templates", authMw(http.HandlerFunc(h.ListGlobalTemplates)))
	mux.Handle("POST /api/v1/global-templates", authMw(http.HandlerFunc(h.CreateGlobalTemplate)))
	mux.Handle("GET /api/v1/global-templates/{id}", authMw(http.HandlerFunc(h.GetGlobalTemplate)))
	mux.Handle("PUT /api/v1/global-templates/{id}", authMw(http.HandlerFunc(h.UpdateGlobalTemplate)))
	mux.Handle("DELETE /api/v1/global-templates/{id}", authMw(http.HandlerFunc(h.DeleteGlobalTemplate)))

	// Authoring utilities
	mux.Handle("POST /api/v1/normalize", authMw(http.HandlerFunc(h.Normalize)))

	// Apply middleware stack
	var handler http.Handler = mux

	handler = mw.CORS(opts.AllowedOrigins)(handler)

	// Security headers
	handler = mw.SecurityHeaders(handler)

	// Request logging
	handler = mw.Logger(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
