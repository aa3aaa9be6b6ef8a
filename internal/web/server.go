// Package web provides the HTTP API for the vibematch recommender.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vibematch/vibematch/internal/library"
	"github.com/vibematch/vibematch/internal/moodai"
	"github.com/vibematch/vibematch/internal/recommend"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	Recommender *recommend.Recommender
	Mood        *moodai.Client // nil disables text classification
	Library     *library.Store // nil disables saved playlists
	Logger      zerolog.Logger
}

// Server is the HTTP server for the recommendation API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Recommender == nil {
		return nil, errors.New("recommender is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	handlers := NewHandlers(cfg.Recommender, cfg.Mood, cfg.Library)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(observeRequests)
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handlers.Health)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handlers.SearchTracks)
		r.Post("/recommend/track", s.handlers.RecommendByTrack)
		r.Post("/recommend/mood", s.handlers.RecommendByMood)
		r.Post("/recommend/text", s.handlers.RecommendByText)
		r.Get("/moods", s.handlers.Moods)
		r.Get("/clusters", s.handlers.Clusters)
		r.Get("/clusters/{id}/tracks", s.handlers.ClusterTracks)
		r.Post("/playlists", s.handlers.CreatePlaylist)
		r.Get("/playlists", s.handlers.ListPlaylists)
		r.Get("/playlists/{id}", s.handlers.GetPlaylist)
		r.Delete("/playlists/{id}", s.handlers.DeletePlaylist)
	})
}

// Handler returns the root HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// requestLogger logs one line per request with status and duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
