// internal/server/server.go

// Package server exposes the pipeline over HTTP for the
// preview-then-confirm UX: parse answers follow-up questions, preview
// renders the plan with totals and warnings, apply persists.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"timesheet-planner/internal/common/config"
	stderrors "timesheet-planner/internal/common/errors"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/directory"
	"timesheet-planner/internal/pipeline"
	"timesheet-planner/internal/pipeline/intent"
	"timesheet-planner/internal/timesheet"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	pipeline *pipeline.Pipeline
	http     *http.Server
	logger   logger.Logger
}

func New(p *pipeline.Pipeline, cfg config.ServerConfig, log logger.Logger) *Server {
	s := &Server{
		pipeline: p,
		logger:   log.WithFields(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan/parse", s.handleParse)
	mux.HandleFunc("/api/plan/preview", s.handlePreview)
	mux.HandleFunc("/api/plan/apply", s.handleApply)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.http.Addr})
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req intent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.pipeline.Parse(r.Context(), &req)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pipeline.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.pipeline.Preview(r.Context(), &req)
	if err != nil {
		s.logger.Error("preview failed", map[string]interface{}{"error": err.Error()})
		s.writeInfraError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pipeline.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.pipeline.Apply(r.Context(), &req)
	if err != nil {
		s.logger.Error("apply failed", map[string]interface{}{"error": err.Error()})
		s.writeInfraError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeInfraError renders store and collaborator failures as structured
// errors so clients can distinguish retryable outages from bad requests.
func (s *Server) writeInfraError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrDirectoryQueryFailed):
		writeJSON(w, http.StatusServiceUnavailable, stderrors.NewDirectoryQueryFailedError(err))
	case errors.Is(err, timesheet.ErrTimesheetQueryFailed):
		writeJSON(w, http.StatusServiceUnavailable, stderrors.NewTimesheetQueryFailedError(err))
	case errors.Is(err, timesheet.ErrTimesheetInsertFailed):
		writeJSON(w, http.StatusServiceUnavailable, stderrors.NewTimesheetInsertFailedError(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
