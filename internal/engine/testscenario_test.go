package engine

import (
	"testing"

	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/pkg/config"
)

// newTwoHostEngine builds a minimal Engine with two 1-flop/s, single-core
// hosts joined by one link, matching the small fixed platforms
// FloydZone/FullZone tests in internal/routing build by hand.
func newTwoHostEngine(t *testing.T, bandwidth, latency float64) *Engine {
	t.Helper()
	cfg := &config.Scenario{
		Hosts: []config.Host{
			{ID: "h1", Cores: 1, Speed: 1},
			{ID: "h2", Cores: 1, Speed: 1},
		},
		Links: []config.Link{
			{ID: "l1", BandwidthBps: bandwidth, LatencyS: latency},
		},
		NetZones: []config.NetZone{
			{ID: "z0", Hosts: []string{"h1", "h2"}, Algorithm: "full", Routes: []config.RouteEntry{
				{Src: "h1", Dst: "h2", Links: []string{"l1"}},
				{Src: "h2", Dst: "h1", Links: []string{"l1"}},
			}},
		},
	}
	mgr, err := resource.LoadScenario(cfg, false)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	rt, err := routing.Build(cfg, mgr)
	if err != nil {
		t.Fatalf("routing.Build: %v", err)
	}
	return New(mgr, rt)
}

func almostEqual(t *testing.T, got, want, eps float64) {
	t.Helper()
	if got < want-eps || got > want+eps {
		t.Fatalf("got %v, want %v (+-%v)", got, want, eps)
	}
}
