package simd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
	"github.com/opendsim/kernel/internal/interaction"
	"github.com/opendsim/kernel/internal/metrics"
	"github.com/opendsim/kernel/internal/policy"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/internal/workload"
	"github.com/opendsim/kernel/pkg/config"
	"github.com/opendsim/kernel/pkg/logger"
	"github.com/opendsim/kernel/pkg/s4u"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// RunExecutor drives runs on their own goroutine and tracks them in a
// RunStore. The engine it wraps has no preemption primitive (internal/actor
// bodies cannot be interrupted mid-Simcall), so Stop on an in-flight run
// only marks it cancelled and lets the background goroutine finish on its
// own — see DESIGN.md.
type RunExecutor struct {
	store *RunStore

	mu       sync.Mutex
	canceled map[string]bool
}

// NewRunExecutor builds an executor over store.
func NewRunExecutor(store *RunStore) *RunExecutor {
	return &RunExecutor{store: store, canceled: make(map[string]bool)}
}

// Start begins executing a run asynchronously, returning its RUNNING record.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}
	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch rec.Run.Status {
	case RunStatusRunning:
		return rec, nil
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := e.store.SetStatus(runID, RunStatusRunning, "")
	if err != nil {
		return nil, err
	}
	go e.runSimulation(runID)
	return updated, nil
}

// Stop marks a run cancelled. If it is already running, its background
// goroutine is left to finish, but the executor discards its result: see
// isCanceled/runSimulation.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}
	e.mu.Lock()
	e.canceled[runID] = true
	e.mu.Unlock()

	updated, err := e.store.SetStatus(runID, RunStatusCancelled, "")
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (e *RunExecutor) isCanceled(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceled[runID]
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	delete(e.canceled, runID)
	e.mu.Unlock()
}

func (e *RunExecutor) fail(runID string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("run failed", "run_id", runID, "error", msg)
	if _, err := e.store.SetStatus(runID, RunStatusFailed, msg); err != nil {
		logger.Error("failed to record failed status", "run_id", runID, "error", err)
	}
}

func (e *RunExecutor) runSimulation(runID string) {
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run vanished before execution", "run_id", runID)
		return
	}

	scenario, err := config.ParseScenarioYAMLString(rec.Input.ScenarioYAML)
	if err != nil {
		e.fail(runID, "invalid scenario: %v", err)
		return
	}

	duration := rec.Input.DurationSeconds
	if duration <= 0 {
		duration = 10
	}

	mgr, err := resource.LoadScenario(scenario, false)
	if err != nil {
		e.fail(runID, "resource initialization failed: %v", err)
		return
	}
	rt, err := routing.Build(scenario, mgr)
	if err != nil {
		e.fail(runID, "routing build failed: %v", err)
		return
	}
	eng := engine.New(mgr, rt)

	graph, err := interaction.NewGraph(scenario)
	if err != nil {
		e.fail(runID, "interaction graph invalid: %v", err)
		return
	}

	collector := metrics.NewCollector()
	var conservation metrics.ConservationReport

	seed := rec.Input.Seed
	if seed == 0 {
		seed = 1
	}
	runner := interaction.NewRunner(eng, graph, nil, seed)
	runner.OnExec = func(serviceID, path string, requested, delivered float64, finishedOK bool) {
		conservation.Record(metrics.ConservationCheck{
			Name:       fmt.Sprintf("%s:%s", serviceID, path),
			Requested:  requested,
			Delivered:  delivered,
			FinishedOK: finishedOK,
		})
	}
	runner.Start()

	policies := policy.NewManager(eng, scenario.Policies)

	driverHost := scenario.Hosts[0].ID
	entry := func(a *actor.Actor, serviceID, path string) error {
		start := eng.Now()

		var err error
		for attempt := 1; ; attempt++ {
			err = runner.Enter(a, serviceID, path)
			if err == nil || policies.Retry == nil || !policies.Retry.ShouldRetry(attempt, err) {
				break
			}
			if sleepErr := s4u.GetHost(eng, driverHost).Sleep(a, policies.Retry.BackoffSeconds(attempt)); sleepErr != nil {
				break
			}
		}

		collector.Record("latency_seconds", eng.Now(), eng.Now()-start, map[string]string{"service": serviceID, "path": path})
		if err != nil {
			collector.Record("errors_total", eng.Now(), 1, map[string]string{"service": serviceID})
			return err
		}
		collector.Record("requests_total", eng.Now(), 1, map[string]string{"service": serviceID})
		return nil
	}

	var generators []*workload.Generator
	for i, pattern := range scenario.Workload {
		host := driverHost
		if _, ok := mgr.Host(pattern.From); ok {
			host = pattern.From
		}
		gen := workload.NewGenerator(eng, host, pattern, entry, seed+int64(i))
		gen.Start(duration)
		generators = append(generators, gen)
	}

	logger.Info("starting simulation", "run_id", runID, "duration_seconds", duration)
	runErr := eng.Run()

	if e.isCanceled(runID) {
		logger.Info("simulation result discarded: run was cancelled", "run_id", runID)
		return
	}

	// The interaction graph's listener actors are daemons (Runner.Start), so
	// the engine kills them itself once every workload generator's actors
	// have exited and reports a clean completion (runErr == nil). A
	// DeadlockReport here means a non-daemon actor is genuinely stuck, e.g.
	// waiting on a mailbox nothing will ever put to.
	var deadlock *DeadlockInfo
	if report, ok := runErr.(*engine.DeadlockReport); ok {
		summary := metrics.RenderDeadlock(report)
		deadlock = &DeadlockInfo{At: summary.At, BlockedByID: summary.BlockedByID}
	} else if runErr != nil {
		e.fail(runID, "simulation error: %v", runErr)
		return
	}

	result := &RunMetrics{
		SimulatedSeconds: eng.Now(),
		Aggregations:     make(map[string]MetricAggregate),
		Deadlock:         deadlock,
	}
	for _, name := range collector.Names() {
		agg := collector.Aggregate(name)
		result.Aggregations[name] = MetricAggregate{Count: agg.Count, Mean: agg.Mean, P50: agg.P50, P95: agg.P95, P99: agg.P99}
	}
	for _, verr := range conservation.Violations() {
		result.ConservationErrors = append(result.ConservationErrors, verr.Error())
	}

	if err := e.store.SetMetrics(runID, result); err != nil {
		logger.Error("failed to store metrics", "run_id", runID, "error", err)
	}
	if _, err := e.store.SetStatus(runID, RunStatusCompleted, ""); err != nil {
		logger.Error("failed to record completed status", "run_id", runID, "error", err)
		return
	}
	logger.Info("run completed", "run_id", runID, "simulated_seconds", eng.Now(),
		"arrivals", sumArrivals(generators), "elapsed", time.Since(time.UnixMilli(rec.Run.CreatedAtUnixMs)))
}

func sumArrivals(gens []*workload.Generator) int {
	total := 0
	for _, g := range gens {
		total += g.Arrivals()
	}
	return total
}
