// Package http serves the traversal status, the report rows and the metrics
// over HTTP, and accepts invocation triggers from a scheduler.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/sharewalk"
	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scanner is the part of sharewalk.Scanner the server drives.
type Scanner interface {
	Invoke(ctx context.Context, inv sharewalk.Invocation) (*sharewalk.Result, error)
	Status(ctx context.Context) (*sharewalk.Status, error)
	Records(ctx context.Context) ([]domain.Record, error)
}

// Server holds the handlers.
type Server struct {
	Scanner  Scanner
	Gatherer prometheus.Gatherer
	Budget   time.Duration
	Logger   *slog.Logger

	// OnInvoke, when set, observes every triggered invocation.
	OnInvoke func(res *sharewalk.Result, elapsed time.Duration, err error)

	busy sync.Mutex
}

// NewHandler creates the router. gatherer may be nil to disable /metrics.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	r.Get("/status", s.status)
	r.Get("/records", s.records)
	r.Post("/invoke", s.invoke)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, http.StatusOK, map[string]string{
		"app":     "sharewalk",
		"version": sharewalk.Version,
	})
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Run          *domain.RunMetadata `json:"run,omitempty"`
	CheckpointID string              `json:"checkpoint_id,omitempty"`
	SavedAt      *time.Time          `json:"saved_at,omitempty"`
	Depth        int                 `json:"depth"`
	Path         string              `json:"path,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	st, err := s.Scanner.Status(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Status error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Status failed", "err", err)
		return
	}
	resp := StatusResponse{Run: st.Run, Path: st.Path}
	if st.Checkpoint != nil {
		resp.CheckpointID = st.Checkpoint.ID
		resp.SavedAt = &st.Checkpoint.SavedAt
		resp.Depth = len(st.Checkpoint.Frames)
	}
	writeJSON(w, s.Logger, http.StatusOK, resp)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Scanner.Records(r.Context())
	if errors.Is(err, domain.ErrNoOutputTable) {
		http.Error(w, "No report yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Records error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Records failed", "err", err)
		return
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	writeJSON(w, s.Logger, http.StatusOK, recs)
}

// InvokeRequest is the optional body of POST /invoke.
type InvokeRequest struct {
	ForceFresh bool   `json:"force_fresh"`
	StartPath  string `json:"start_path"`
	Budget     string `json:"budget"`
}

// InvokeResponse is the body of a successful POST /invoke.
type InvokeResponse struct {
	RunID   string             `json:"run_id"`
	Mode    string             `json:"mode"`
	State   string             `json:"state"`
	Steps   int                `json:"steps"`
	Records int                `json:"records"`
	Status  domain.RunMetadata `json:"status"`
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	var body InvokeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.Logger.Warn("Invoke: Invalid request body", "err", err)
			return
		}
	}

	inv := sharewalk.Invocation{ForceFresh: body.ForceFresh, StartPath: body.StartPath, Budget: s.Budget}
	if body.Budget != "" {
		d, err := time.ParseDuration(body.Budget)
		if err != nil || d <= 0 {
			http.Error(w, "Invalid budget", http.StatusBadRequest)
			return
		}
		inv.Budget = d
	}

	// Overlapping triggers would only queue behind each other.
	if !s.busy.TryLock() {
		http.Error(w, "An invocation is already running", http.StatusConflict)
		return
	}
	defer s.busy.Unlock()

	started := time.Now()
	res, err := s.Scanner.Invoke(r.Context(), inv)
	if s.OnInvoke != nil {
		s.OnInvoke(res, time.Since(started), err)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Invoke error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Invoke failed", "err", err)
		return
	}

	writeJSON(w, s.Logger, http.StatusOK, InvokeResponse{
		RunID:   res.RunID,
		Mode:    string(res.Mode),
		State:   string(res.State),
		Steps:   res.Steps,
		Records: res.Records,
		Status:  res.Status,
	})
}
