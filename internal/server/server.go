// Package server exposes the participant operations as a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/memoir/internal/session"
)

// Config configures the HTTP server.
type Config struct {
	Addr string

	// AttemptTTL is how long an idle memory check is kept before it is
	// dropped as abandoned.
	AttemptTTL time.Duration

	// RequestsPerSecond and Burst limit each client address.
	RequestsPerSecond float64
	Burst             int

	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that sets those headers.
	TrustProxy bool
}

func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:8420",
		AttemptTTL:        30 * time.Minute,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// ConfigFromEnv reads MEMOIR_ADDR, MEMOIR_ATTEMPT_TTL, MEMOIR_RATE_LIMIT
// and MEMOIR_TRUST_PROXY. Unparsable values are reported and ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("MEMOIR_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MEMOIR_ATTEMPT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AttemptTTL = d
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_ATTEMPT_TTL=%q: %v\n", v, err)
		}
	}
	if v := os.Getenv("MEMOIR_RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestsPerSecond = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_RATE_LIMIT=%q: %v\n", v, err)
		}
	}
	if v := os.Getenv("MEMOIR_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TrustProxy = b
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_TRUST_PROXY=%q: %v\n", v, err)
		}
	}
	return cfg
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.AttemptTTL <= 0 {
		return fmt.Errorf("attempt TTL must be positive, got %s", c.AttemptTTL)
	}
	if c.RequestsPerSecond < 0 || c.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the memoir HTTP API.
type Server struct {
	svc      *session.Service
	db       Pinger
	cfg      Config
	log      *slog.Logger
	attempts *attemptStore
	limiter  *keyedLimiter
	router   chi.Router
	version  string
	started  time.Time
	now      func() time.Time
}

// New creates a Server. A nil logger discards logs.
func New(svc *session.Service, db Pinger, cfg Config, log *slog.Logger, version string) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		svc:      svc,
		db:       db,
		cfg:      cfg,
		log:      log,
		attempts: newAttemptStore(cfg.AttemptTTL),
		limiter:  newKeyedLimiter(cfg.RequestsPerSecond, cfg.Burst),
		version:  version,
		started:  time.Now(),
		now:      time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.rateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/users", s.handleCreateUser)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/phase", s.handlePhase)
			r.Get("/next", s.handleNext)
			r.Get("/stats", s.handleStats)
			r.Post("/answers", s.handleInitialAnswer)
			r.Post("/checks", s.handleStartCheck)
		})

		r.Route("/checks/{attemptID}", func(r chi.Router) {
			r.Get("/", s.handleGetCheck)
			r.Post("/confidence", s.handleConfidence)
			r.Post("/recall", s.handleRecall)
			r.Post("/reveal", s.handleReveal)
			r.Delete("/", s.handleAbandon)
		})
	})

	s.router = r
}

// Handler returns the server wrapped for http.Server with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		s.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
