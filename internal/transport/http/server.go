package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"finscrape/internal/infrastructure"
	"finscrape/internal/middleware"
)

// Server is the status HTTP server
type Server struct {
	router          chi.Router
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger

	attempts    AttemptLister
	metrics     http.Handler
	tracer      trace.Tracer
	httpMetrics *infrastructure.HTTPMetrics
	version     string
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithAttempts exposes the attempt ledger
func WithAttempts(attempts AttemptLister) ServerOption {
	return func(s *Server) { s.attempts = attempts }
}

// WithMetricsHandler serves handler on /metrics
func WithMetricsHandler(handler http.Handler) ServerOption {
	return func(s *Server) { s.metrics = handler }
}

// WithTelemetry traces requests and records request metrics
func WithTelemetry(tracer trace.Tracer, metrics *infrastructure.HTTPMetrics) ServerOption {
	return func(s *Server) {
		s.tracer = tracer
		s.httpMetrics = metrics
	}
}

// WithServerLogger sets the logger
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by /healthz
func WithVersion(version string) ServerOption {
	return func(s *Server) { s.version = version }
}

// WithShutdownTimeout bounds Shutdown
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.shutdownTimeout = d }
}

// NewServer creates a status server listening on addr
func NewServer(addr string, jobs JobLister, opts ...ServerOption) *Server {
	s := &Server{
		shutdownTimeout: 10 * time.Second,
		logger:          slog.Default(),
		metrics:         http.NotFoundHandler(),
		version:         "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infrastructure.WithComponent(s.logger, "status_server")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.tracer != nil {
		r.Use(middleware.Telemetry(s.tracer, s.httpMetrics))
	}
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(s.logger))
	r.Use(middleware.Recoverer(s.logger))

	r.Get("/healthz", NewHealthHandler(s.version).HealthCheck)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/jobs", NewJobsHandler(jobs, s.attempts, s.logger).Routes())
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Status server listening", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting up to the shutdown timeout for open requests
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	s.logger.InfoContext(ctx, "Status server shutting down")
	return s.httpServer.Shutdown(ctx)
}
