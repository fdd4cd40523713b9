package engine

import (
	"testing"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/pkg/config"
)

// TestEngineAppliesHostSpeedProfileMidRun grounds the scheduler's profile
// polling: h1 runs at 1 flop/s until t=5, then a scheduled event doubles it
// to 2 flop/s. An actor executing 15 flops does 5 flops in the first 5s
// (10 remaining), then finishes the rest at the doubled rate in 5 more
// seconds, landing at t=10 rather than t=15.
func TestEngineAppliesHostSpeedProfileMidRun(t *testing.T) {
	cfg := &config.Scenario{
		Hosts: []config.Host{
			{ID: "h1", Cores: 1, Speed: 1, SpeedProfile: []config.ProfileEvent{
				{Date: 5, Value: 2},
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
	e := New(mgr, rt)

	var finishAt float64
	e.Spawn("h1", "a", func(a *actor.Actor) {
		act, err := e.NewExec("exec", "h1", 15, 0)
		if err != nil {
			t.Errorf("NewExec: %v", err)
			return
		}
		if err := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: -1}); err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		finishAt = e.Now()
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	almostEqual(t, finishAt, 10, 1e-6)
}

// TestEngineAppliesLinkOutageProfile grounds the on/off half of a profile
// event: a link starts up, goes down at t=3, and a comm crossing it at that
// point stalls forever, so the run reports a deadlock rather than the comm
// completing.
func TestEngineAppliesLinkOutageProfile(t *testing.T) {
	off := false
	cfg := &config.Scenario{
		Hosts: []config.Host{
			{ID: "h1", Cores: 1, Speed: 1},
			{ID: "h2", Cores: 1, Speed: 1},
		},
		Links: []config.Link{
			{ID: "l1", BandwidthBps: 1, LatencyS: 0, Profile: []config.ProfileEvent{
				{Date: 3, On: &off},
			}},
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
	e := New(mgr, rt)

	e.Spawn("h1", "sender", func(a *actor.Actor) {
		comm, err := e.NewDirectComm("comm", "h1", "h2", 100, nil)
		if err != nil {
			t.Errorf("NewDirectComm: %v", err)
			return
		}
		a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: comm, Deadline: -1})
	})

	if err := e.Run(); err == nil {
		t.Fatalf("expected a deadlock once the link goes down mid-transfer")
	}
}
