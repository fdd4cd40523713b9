// Package simd is the control plane that sits above one internal/engine
// run: it accepts scenarios, drives a run to completion on its own
// goroutine, and exposes the result over HTTP and gRPC. Grounded on the
// teacher's internal/simd package, with the protobuf-generated wire types
// replaced by plain Go structs (this kernel has no protoc-generated
// gen/go/simulation/v1 package to build on) and gRPC served through a
// custom JSON codec instead of generated stubs.
package simd

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/opendsim/kernel/pkg/utils"
	"gorm.io/gorm"
)

// RunStatus mirrors a simulationv1.RunStatus enum as a plain string so
// this package needs no code generation step.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// RunInput is what a client submits to start a run.
type RunInput struct {
	ScenarioYAML    string  `json:"scenario_yaml"`
	DurationSeconds float64 `json:"duration_seconds"`
	Seed            int64   `json:"seed"`
}

// Run is one simulation's lifecycle state.
type Run struct {
	ID              string    `json:"id"`
	Status          RunStatus `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAtUnixMs int64     `json:"created_at_unix_ms"`
	StartedAtUnixMs int64     `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64     `json:"ended_at_unix_ms,omitempty"`
}

// RunMetrics is the summarized result of a completed run, built from
// internal/metrics once the engine stops.
type RunMetrics struct {
	SimulatedSeconds   float64                    `json:"simulated_seconds"`
	Aggregations       map[string]MetricAggregate `json:"aggregations"`
	ConservationErrors []string                   `json:"conservation_errors,omitempty"`
	Deadlock           *DeadlockInfo              `json:"deadlock,omitempty"`
}

// MetricAggregate is the JSON-friendly projection of metrics.Aggregation.
type MetricAggregate struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// DeadlockInfo is the JSON-friendly projection of metrics.DeadlockSummary.
type DeadlockInfo struct {
	At          float64          `json:"at"`
	BlockedByID map[int64]string `json:"blocked_by_id"`
}

// RunRecord bundles one run's lifecycle state, its submitted input, and
// its result metrics once available.
type RunRecord struct {
	Run     *Run
	Input   *RunInput
	Metrics *RunMetrics
}

// RunStore holds every run this process knows about, in memory, optionally
// mirrored into a gorm-backed table for durability across restarts (the
// teacher's RunStore is memory-only; the sqlite mirror is new, grounded on
// the gorm/sqlite stack the rest of the retrieval pack uses for
// persistence).
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
	db   *gorm.DB
}

// runRow is the gorm-mapped persistence shape: each field is a JSON blob
// rather than a normalized schema, since RunRecord's shape changes with
// this package rather than needing a migration story of its own.
type runRow struct {
	ID              string `gorm:"primaryKey"`
	RunJSON         string
	InputJSON       string
	MetricsJSON     string
	CreatedAtUnixMs int64
}

// NewRunStore builds an empty in-memory RunStore. db may be nil, in which
// case runs live only in memory for the process's lifetime.
func NewRunStore(db *gorm.DB) (*RunStore, error) {
	if db != nil {
		if err := db.AutoMigrate(&runRow{}); err != nil {
			return nil, fmt.Errorf("simd: migrating run store schema: %w", err)
		}
	}
	return &RunStore{runs: make(map[string]*RunRecord), db: db}, nil
}

func nowUnixMs() int64 { return time.Now().UTC().UnixMilli() }

// Create registers a new run, generating a run ID if none is supplied.
func (s *RunStore) Create(runID string, input *RunInput) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("simd: run already exists: %s", runID)
	}

	rec := &RunRecord{
		Run:   &Run{ID: runID, Status: RunStatusPending, CreatedAtUnixMs: nowUnixMs()},
		Input: input,
	}
	s.runs[runID] = rec
	s.persist(rec)
	return rec, nil
}

// Get looks up a run by ID.
func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	return rec, ok
}

// List returns up to limit runs (order is unspecified; callers that need
// stable pagination should sort on the client side by CreatedAtUnixMs).
func (s *RunStore) List(limit int) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, minInt(limit, len(s.runs)))
	for _, rec := range s.runs {
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// SetStatus transitions a run's status, stamping Started/EndedAtUnixMs as
// appropriate, and returns the updated record.
func (s *RunStore) SetStatus(runID string, status RunStatus, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("simd: run not found: %s", runID)
	}
	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}
	switch status {
	case RunStatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}
	s.persist(rec)
	return rec, nil
}

// SetMetrics attaches a run's final metrics.
func (s *RunStore) SetMetrics(runID string, m *RunMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("simd: run not found: %s", runID)
	}
	rec.Metrics = m
	s.persist(rec)
	return nil
}

// persist mirrors rec into the optional sqlite table, best-effort: a
// persistence failure never fails the caller's run, it only means that
// run is missing after a restart.
func (s *RunStore) persist(rec *RunRecord) {
	if s.db == nil {
		return
	}
	row := runRow{
		ID:              rec.Run.ID,
		RunJSON:         mustJSON(rec.Run),
		InputJSON:       mustJSON(rec.Input),
		MetricsJSON:     mustJSON(rec.Metrics),
		CreatedAtUnixMs: rec.Run.CreatedAtUnixMs,
	}
	s.db.Save(&row)
}

// mustJSON marshals v for a persistence column; a marshal failure can only
// happen for a value this package built itself, so it degrades to an empty
// string rather than panicking a run to death over a persistence detail.
func mustJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
