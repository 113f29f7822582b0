package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/apidockhq/apidock/pkg/auth"
	"github.com/apidockhq/apidock/pkg/httputil"
	"github.com/apidockhq/apidock/pkg/middleware"
	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// Server is the APIDock HTTP API
type Server struct {
	router    *mux.Router
	ledger    *reputation.Ledger
	wikiSvc   *wiki.Service
	validator *wiki.Validator
	authSvc   auth.Service
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracing   bool
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithMetrics sets HTTP metrics collection
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithTracing wraps the handler chain with OpenTelemetry instrumentation
func WithTracing() ServerOption {
	return func(s *Server) { s.tracing = true }
}

// NewServer creates the API server and registers all routes
func NewServer(ledger *reputation.Ledger, wikiSvc *wiki.Service, validator *wiki.Validator, authSvc auth.Service, logger *observability.Logger, opts ...ServerOption) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		ledger:    ledger,
		wikiSvc:   wikiSvc,
		validator: validator,
		authSvc:   authSvc,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	authMW := middleware.NewAuthMiddleware(s.authSvc, false)

	// Public routes
	s.router.HandleFunc("/api/v1/tiers", s.listTiers).Methods("GET")
	s.router.HandleFunc("/api/v1/apis", s.listWikiPages).Methods("GET")
	s.router.HandleFunc("/api/v1/apis/{api}/wiki", s.getWikiPage).Methods("GET")
	s.router.HandleFunc("/api/v1/users/{id}/reputation", s.getReputation).Methods("GET")
	s.router.HandleFunc("/api/v1/users/{id}/events", s.listEvents).Methods("GET")

	// Authenticated routes
	protected := s.router.NewRoute().Subrouter()
	protected.Use(authMW.Handler)
	protected.HandleFunc("/api/v1/apis/{api}/wiki", s.putWikiPage).Methods("PUT")
	protected.HandleFunc("/api/v1/users/{id}/points", s.awardPoints).Methods("POST")
	protected.HandleFunc("/api/v1/users/{id}/reconcile", s.reconcileUser).Methods("POST")
}

// Handler returns the full middleware chain for the server
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.router
	if s.metrics != nil {
		handler = s.metrics.HTTPMiddleware(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)
	handler = httputil.RecoveryMiddleware(s.logger)(handler)
	if s.tracing {
		handler = otelhttp.NewHandler(handler, "apidock-api")
	}
	return handler
}

// Router returns the bare route table, used by tests
func (s *Server) Router() *mux.Router {
	return s.router
}
