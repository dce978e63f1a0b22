// Package api exposes the habit service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/service"
)

// Config tunes the HTTP server. Zero values fall back to the defaults.
type Config struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.RateLimitPerSec <= 0 {
		c.RateLimitPerSec = constants.DefaultRateLimitPerSec
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = constants.DefaultRateLimitBurst
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout * time.Second
	}
	return c
}

type Server struct {
	svc     *service.HabitService
	cfg     Config
	router  *mux.Router
	metrics *metrics
	limiter *rateLimiter
}

func NewServer(svc *service.HabitService, cfg Config) *Server {
	cfg = cfg.withDefaults()
	m := newMetrics()
	s := &Server{
		svc:     svc,
		cfg:     cfg,
		router:  mux.NewRouter(),
		metrics: m,
		limiter: newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst, m.rateLimits.Inc),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(logRequests, s.metrics.instrument)

	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(requireOwner, s.limiter.handler)

	api.HandleFunc("/habits", s.listHabits).Methods(http.MethodGet)
	api.HandleFunc("/habits", s.createHabit).Methods(http.MethodPost)
	api.HandleFunc("/habits/{id}", s.getHabit).Methods(http.MethodGet)
	api.HandleFunc("/habits/{id}", s.updateHabit).Methods(http.MethodPut)
	api.HandleFunc("/habits/{id}", s.deleteHabit).Methods(http.MethodDelete)
	api.HandleFunc("/habits/{id}/stats", s.habitStats).Methods(http.MethodGet)

	api.HandleFunc("/habit-logs", s.listLogs).Methods(http.MethodGet)
	api.HandleFunc("/habit-logs", s.recordLog).Methods(http.MethodPost)
	api.HandleFunc("/habit-logs/toggle", s.toggleLog).Methods(http.MethodPost)

	api.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)
}

// Handler returns the root handler, suitable for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.limiter.cleanup(10 * time.Minute)
			case <-stopCleanup:
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
