// Package web serves the metrics dashboard and its JSON API.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/komsit37/kabu/pkg/kabu/provider"
)

// Config holds server configuration
type Config struct {
	Addr string
	Log  zerolog.Logger

	// Live is the uncached live provider; each session wraps it in its own cache.
	Live    provider.Provider
	Fixture provider.Provider
	// DefaultProvider is used when a request names none; empty or
	// unavailable falls back to the first configured provider.
	DefaultProvider string

	CacheTTL      time.Duration
	CacheMaxItems int
	Concurrency   int

	// SessionIdle is how long an unused session keeps its cache.
	SessionIdle time.Duration
	// EvictSchedule is the cron spec of the idle-session sweep.
	EvictSchedule string

	DefaultSymbols string
}

// Server represents the HTTP server
type Server struct {
	cfg      Config
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	sessions *Sessions
	cron     *cron.Cron
	page     *template.Template
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Live == nil && cfg.Fixture == nil {
		return nil, errors.New("web: at least one provider is required")
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = 30 * time.Minute
	}
	if cfg.EvictSchedule == "" {
		cfg.EvictSchedule = "@every 1m"
	}

	page, err := parsePage()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		page:   page,
		cron:   cron.New(),
	}
	s.sessions = NewSessions(cfg.SessionIdle, func() provider.Provider {
		if cfg.Live == nil {
			return nil
		}
		return provider.NewCached(cfg.Live, provider.NewCache(cfg.CacheTTL, cfg.CacheMaxItems))
	})

	if _, err := s.cron.AddFunc(cfg.EvictSchedule, s.evictIdle); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session store.
func (s *Server) Sessions() *Sessions { return s.sessions }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	// Live fetches retry with backoff, so allow well beyond a single call.
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleIndex)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
	})
}

// Start starts the eviction job and the HTTP server. It blocks until the
// server stops.
func (s *Server) Start() error {
	s.cron.Start()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	<-s.cron.Stop().Done()
	return s.server.Shutdown(ctx)
}

func (s *Server) evictIdle() {
	if n := s.sessions.Evict(); n > 0 {
		s.log.Debug().Int("evicted", n).Int("remaining", s.sessions.Len()).Msg("Idle sessions evicted")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
