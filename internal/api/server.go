// Package api exposes the engine's administrative HTTP surface:
// status, the alert store's read side, and manual check invocation.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/engine"
	"github.com/rentwatch/rentwatch/internal/store"
	"github.com/rentwatch/rentwatch/internal/version"
)

// Server provides the admin HTTP API.
type Server struct {
	engine    *engine.Engine
	store     *store.Store
	logger    zerolog.Logger
	port      string
	logBuffer *LogBuffer
	startTime time.Time
	srv       *http.Server
}

// NewServer creates an admin API server.
func NewServer(eng *engine.Engine, st *store.Store, logger zerolog.Logger, port string) *Server {
	return &Server{
		engine:    eng,
		store:     st,
		logger:    logger.With().Str("component", "api").Logger(),
		port:      port,
		startTime: time.Now(),
	}
}

// SetLogBuffer attaches the ring buffer served at /api/logs.
func (s *Server) SetLogBuffer(lb *LogBuffer) {
	s.logBuffer = lb
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/", s.handleAlertAction)
	mux.HandleFunc("/api/sweep", s.handleSweep)
	mux.HandleFunc("/api/checks/", s.handleRunCheck)
	mux.HandleFunc("/api/logs", s.handleLogs)
	return mux
}

// Start starts serving; it blocks until the server is shut down.
func (s *Server) Start() error {
	s.srv = &http.Server{Addr: ":" + s.port, Handler: s.Handler()}
	s.logger.Info().Str("address", s.srv.Addr).Msg("admin API listening")

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	activeCount, err := s.store.CountActive(r.Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count active alerts")
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	st := s.engine.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":        st.Running,
		"task_count":     st.TaskCount,
		"active_alerts":  activeCount,
		"checks":         s.engine.Names(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"version":        version.GetVersion(),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	alerts, err := s.store.ListActive(r.Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list alerts")
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// handleAlertAction serves POST /alerts/{id}/read and
// POST /alerts/{id}/resolve, the consumer-side lifecycle flips.
func (s *Server) handleAlertAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/alerts/")
	idStr, action, ok := strings.Cut(rest, "/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	switch action {
	case "read":
		err = s.store.MarkRead(r.Context(), id)
	case "resolve":
		err = s.store.Resolve(r.Context(), id, time.Now())
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("alert_id", id).Str("action", action).Msg("alert action failed")
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "action": action})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reports := s.engine.RunAll(r.Context())
	writeJSON(w, http.StatusOK, reports)
}

// handleRunCheck serves POST /api/checks/{name}/run.
func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/checks/")
	name, action, ok := strings.Cut(rest, "/")
	if !ok || action != "run" || name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	report, err := s.engine.RunCheck(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		writeJSON(w, http.StatusOK, map[string]any{"logs": []LogEntry{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": s.logBuffer.Entries()})
}
