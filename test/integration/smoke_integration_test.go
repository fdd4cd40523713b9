//go:build integration
// +build integration

package integration_test

import (
	"path/filepath"
	"testing"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
	"github.com/opendsim/kernel/internal/interaction"
	"github.com/opendsim/kernel/internal/metrics"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/internal/workload"
	"github.com/opendsim/kernel/pkg/config"
)

func TestIntegration_ConfigAndScenarioLoadSmoke(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "config", "config.yaml")
	scenarioPath := filepath.Join("..", "..", "config", "scenario.yaml")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig(%s) failed: %v", cfgPath, err)
	}
	if cfg == nil {
		t.Fatalf("LoadConfig(%s) returned nil config", cfgPath)
	}

	scenario, err := config.LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("LoadScenario(%s) failed: %v", scenarioPath, err)
	}
	if len(scenario.Services) == 0 {
		t.Fatalf("expected scenario to define at least one service")
	}
	if len(scenario.Workload) == 0 {
		t.Fatalf("expected scenario to define at least one workload pattern")
	}
}

// TestIntegration_EndToEndScenarioRun runs config/scenario.yaml through the
// full stack this repo builds: resource manager, routing table, the
// interaction graph's listener actors, and a workload generator driving
// real arrivals — the same wiring internal/simd.RunExecutor uses in the
// control plane, exercised here directly against the engine.
func TestIntegration_EndToEndScenarioRun(t *testing.T) {
	scenarioPath := filepath.Join("..", "..", "config", "scenario.yaml")
	scenario, err := config.LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("LoadScenario(%s) failed: %v", scenarioPath, err)
	}

	mgr, err := resource.LoadScenario(scenario, false)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	rt, err := routing.Build(scenario, mgr)
	if err != nil {
		t.Fatalf("routing.Build: %v", err)
	}
	eng := engine.New(mgr, rt)

	graph, err := interaction.NewGraph(scenario)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	runner := interaction.NewRunner(eng, graph, nil, 42)

	var checks metrics.ConservationReport
	runner.OnExec = func(serviceID, path string, requested, delivered float64, finishedOK bool) {
		checks.Record(metrics.ConservationCheck{Name: serviceID + ":" + path, Requested: requested, Delivered: delivered, FinishedOK: finishedOK})
	}
	runner.Start()

	collector := metrics.NewCollector()
	entry := func(a *actor.Actor, serviceID, path string) error {
		start := eng.Now()
		err := runner.Enter(a, serviceID, path)
		collector.Record("latency_seconds", eng.Now(), eng.Now()-start, nil)
		return err
	}

	for i, pattern := range scenario.Workload {
		gen := workload.NewGenerator(eng, scenario.Hosts[0].ID, pattern, entry, int64(i+1))
		gen.Start(1.0)
	}

	// The listener actors are daemons, so once the workload generator's
	// driver actor exits the engine kills them and Run returns nil.
	if err := eng.Run(); err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}

	agg := collector.Aggregate("latency_seconds")
	if agg.Count == 0 {
		t.Fatalf("expected at least one completed request, got none")
	}
	if violations := checks.Violations(); len(violations) != 0 {
		t.Fatalf("conservation violated: %v", violations)
	}
}
