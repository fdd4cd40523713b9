package interaction

import (
	"testing"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/pkg/config"
)

func twoServiceScenario() *config.Scenario {
	return &config.Scenario{
		Hosts: []config.Host{
			{ID: "front", Cores: 1, Speed: 1e9},
			{ID: "back", Cores: 1, Speed: 1e9},
		},
		Links: []config.Link{{ID: "l1", BandwidthBps: 1e9, LatencyS: 0}},
		NetZones: []config.NetZone{{ID: "z0", Hosts: []string{"front", "back"}, Algorithm: "full", Routes: []config.RouteEntry{
			{Src: "front", Dst: "back", Links: []string{"l1"}},
			{Src: "back", Dst: "front", Links: []string{"l1"}},
		}}},
		Services: []config.Service{
			{
				ID: "gateway", Replicas: 1, Host: "front",
				Endpoints: []config.Endpoint{{
					Path: "/", MeanCPUMs: 1, CPUSigmaMs: 0,
					Downstream: []config.DownstreamCall{{To: "backend:/work", Mode: "sync", CallCountMean: 1}},
				}},
			},
			{
				ID: "backend", Replicas: 1, Host: "back",
				Endpoints: []config.Endpoint{{Path: "/work", MeanCPUMs: 1, CPUSigmaMs: 0}},
			},
		},
	}
}

func TestNewGraphResolvesEdges(t *testing.T) {
	g, err := NewGraph(twoServiceScenario())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	edges := g.Downstream("gateway", "/")
	if len(edges) != 1 || edges[0].ToServiceID != "backend" || edges[0].ToPath != "/work" {
		t.Fatalf("unexpected edges: %+v", edges)
	}
}

func TestNewGraphRejectsCycle(t *testing.T) {
	cfg := &config.Scenario{
		Services: []config.Service{
			{ID: "a", Host: "h", Endpoints: []config.Endpoint{{Path: "/", Downstream: []config.DownstreamCall{{To: "b:/"}}}}},
			{ID: "b", Host: "h", Endpoints: []config.Endpoint{{Path: "/", Downstream: []config.DownstreamCall{{To: "a:/"}}}}},
		},
	}
	if _, err := NewGraph(cfg); err == nil {
		t.Fatalf("expected a cycle error")
	}
}

func TestParseDownstreamTarget(t *testing.T) {
	svc, path, err := ParseDownstreamTarget("backend:/work")
	if err != nil || svc != "backend" || path != "/work" {
		t.Fatalf("got (%q, %q, %v)", svc, path, err)
	}
	if _, _, err := ParseDownstreamTarget(""); err == nil {
		t.Fatalf("expected an error for an empty target")
	}
	svc, path, err = ParseDownstreamTarget("solo")
	if err != nil || svc != "solo" || path != "/" {
		t.Fatalf("expected default path for bare service id, got (%q, %q, %v)", svc, path, err)
	}
}

func TestRunnerRoundTripsSyncCall(t *testing.T) {
	cfg := twoServiceScenario()
	mgr, err := resource.LoadScenario(cfg, false)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	rt, err := routing.Build(cfg, mgr)
	if err != nil {
		t.Fatalf("routing.Build: %v", err)
	}
	eng := engine.New(mgr, rt)

	graph, err := NewGraph(cfg)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	runner := NewRunner(eng, graph, nil, 1)
	runner.Start()

	var callErr error
	callDone := false
	eng.Spawn("front", "client", func(a *actor.Actor) {
		callErr = runner.Enter(a, "gateway", "/")
		callDone = true
	})

	// The listener actors are daemons: once the client (the only non-daemon
	// actor) exits after its round trip, the engine kills them outright and
	// Run reports a clean completion rather than a deadlock.
	err = eng.Run()
	if err != nil {
		t.Fatalf("expected a clean completion once the client exited, got %v", err)
	}
	if !callDone {
		t.Fatalf("expected the client's call to have completed before the system went idle")
	}
	if callErr != nil {
		t.Fatalf("unexpected downstream error: %v", callErr)
	}
}
