// Package api exposes application sessions over HTTP. The handlers play the
// part of the form UI: they offer Next, Previous and Submit and gate them the
// way the buttons are gated.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"careerflow/internal/application/service"
	apperrors "careerflow/internal/common/errors"
	"careerflow/internal/common/logger"
)

// Config holds the HTTP settings of the server.
type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	AllowedOrigin     string
	MetricsPath       string
	RateLimitPerMin   int
	RateLimitBurst    int
	ShutdownTimeout   time.Duration
	MaxPatchBodyBytes int64
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	cfg        Config
	apps       *service.Service
	outreach   *service.Outreach
	checks     map[string]HealthCheck
	logger     logger.Logger
	errors     *apperrors.ErrorHandler
	limiter    *clientLimiter
	httpServer *http.Server
}

func New(cfg Config, apps *service.Service, outreach *service.Outreach, checks map[string]HealthCheck, log logger.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxPatchBodyBytes == 0 {
		cfg.MaxPatchBodyBytes = 1 << 20
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})

	s := &Server{
		cfg:      cfg,
		apps:     apps,
		outreach: outreach,
		checks:   checks,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
		limiter:  newClientLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/applications", s.handleStart)
	mux.HandleFunc("GET /api/applications/{id}", s.handleGet)
	mux.HandleFunc("PATCH /api/applications/{id}", s.handlePatch)
	mux.HandleFunc("DELETE /api/applications/{id}", s.handleAbandon)
	mux.HandleFunc("POST /api/applications/{id}/skills", s.handleAddSkill)
	mux.HandleFunc("DELETE /api/applications/{id}/skills/{skill}", s.handleRemoveSkill)
	mux.HandleFunc("POST /api/applications/{id}/certifications", s.handleAddCertification)
	mux.HandleFunc("DELETE /api/applications/{id}/certifications/{certification}", s.handleRemoveCertification)
	mux.HandleFunc("POST /api/applications/{id}/next", s.handleNext)
	mux.HandleFunc("POST /api/applications/{id}/prev", s.handlePrev)
	mux.HandleFunc("POST /api/applications/{id}/documents/{slot}", s.handleBrowseUpload)
	mux.HandleFunc("PUT /api/applications/{id}/documents/{slot}", s.handleDropUpload)
	mux.HandleFunc("DELETE /api/applications/{id}/documents/{slot}", s.handleRemoveDocument)
	mux.HandleFunc("POST /api/applications/{id}/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/applications/{id}/steps/{step}/submit", s.handleStepSubmit)

	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)

	mux.Handle("POST /api/contact", s.withRateLimit(http.HandlerFunc(s.handleContact)))
	mux.Handle("POST /api/subscribe", s.withRateLimit(http.HandlerFunc(s.handleSubscribe)))

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.MetricsPath != "" {
		mux.Handle("GET "+s.cfg.MetricsPath, promhttp.Handler())
	}

	return s.withLogging(s.withCORS(mux))
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
		cancel()
	}
	body := map[string]interface{}{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	s.jsonResponse(w, status, body)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Error encoding JSON response", map[string]interface{}{"error": err})
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errors.WriteHTTP(w, r, err)
}
