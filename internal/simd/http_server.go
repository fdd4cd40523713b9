package simd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/opendsim/kernel/pkg/logger"
)

// HTTPServer is the control plane's REST surface: create/start/stop/list
// runs and read back their metrics, trimmed to the operations this
// kernel's RunRecord actually supports (no export/optimization endpoints —
// see DESIGN.md for what those needed and why they were dropped).
type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	executor *RunExecutor
}

// NewHTTPServer wires the admin routes over store/executor.
func NewHTTPServer(store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{mux: http.NewServeMux(), store: store, executor: executor}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	return s
}

// Handler returns the server's http.Handler.
func (s *HTTPServer) Handler() http.Handler { return s.mux }

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	if runID, ok := strings.CutSuffix(path, ":start"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleStartRun(w, r, runID)
		return
	}
	if runID, ok := strings.CutSuffix(path, ":stop"); ok {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleStopRun(w, r, runID)
		return
	}
	if runID, ok := strings.CutSuffix(path, "/metrics"); ok {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleGetRunMetrics(w, r, runID)
		return
	}

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetRun(w, r, path)
}

func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string    `json:"run_id,omitempty"`
		Input *RunInput `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Input == nil {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	rec, err := s.store.Create(req.RunID, req.Input)
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	logger.Info("run created (http)", "run_id", rec.Run.ID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": rec.Run})
}

func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	recs := s.store.List(limit)
	runs := make([]*Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": rec.Run})
}

func (s *HTTPServer) handleStartRun(w http.ResponseWriter, _ *http.Request, runID string) {
	updated, err := s.executor.Start(runID)
	if err != nil {
		s.writeExecutorError(w, err)
		return
	}
	logger.Info("run started (http)", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{"run": updated.Run})
}

func (s *HTTPServer) handleStopRun(w http.ResponseWriter, _ *http.Request, runID string) {
	updated, err := s.executor.Stop(runID)
	if err != nil {
		s.writeExecutorError(w, err)
		return
	}
	logger.Info("run stopped (http)", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{"run": updated.Run})
}

func (s *HTTPServer) handleGetRunMetrics(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Metrics == nil {
		s.writeError(w, http.StatusPreconditionFailed, "metrics not available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"metrics": rec.Metrics})
}

func (s *HTTPServer) writeExecutorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRunIDMissing):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRunTerminal):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}
