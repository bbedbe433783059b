// Package api exposes screen sessions over HTTP: sessions are opened and fed
// intents with plain requests, and their states stream back over SSE.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/searchbook/internal/sse"
	"github.com/listenupapp/searchbook/internal/validation"
)

// Options configures the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	// RequestsPerMinute limits session and intent requests per client IP.
	// Zero disables limiting.
	RequestsPerMinute int
	Burst             int
	// Checks are the dependency probes reported by /health.
	Checks map[string]HealthCheck
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions    *Sessions
	sseManager  *sse.Manager
	sseHandler  *sse.Handler
	validator   *validation.Validator
	rateLimiter *RateLimiter
	checks      map[string]HealthCheck
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(sessions *Sessions, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	router := chi.NewRouter()
	s := &Server{
		sessions:   sessions,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, sessions.Snapshot, logger),
		validator:  validation.New(),
		checks:     opts.Checks,
		router:     router,
		logger:     logger,
	}
	if opts.RequestsPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(opts.RequestsPerMinute, time.Minute, opts.Burst)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Search Book API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerScreenRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops the background work of the server. Sessions are owned by the
// caller.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}
