package engine

import (
	"testing"

	"github.com/opendsim/kernel/internal/actor"
)

// TestEngineKillsDaemonOnceOnlyDaemonsRemain grounds spec's "if only daemon
// actors remain, kill them": a daemon actor blocked forever on a sleep no
// worker will ever wake gets killed the instant the one worker actor exits,
// instead of the run deadlocking or running forever.
func TestEngineKillsDaemonOnceOnlyDaemonsRemain(t *testing.T) {
	e := newTwoHostEngine(t, 1, 0)
	daemonKilled := false

	e.Spawn("h1", "worker", func(a *actor.Actor) {
		act, err := e.NewExec("exec", "h1", 5, 0)
		if err != nil {
			t.Errorf("NewExec: %v", err)
			return
		}
		if err := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: -1}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	daemon := e.SpawnDaemon("h1", "housekeeper", func(a *actor.Actor) {
		a.Simcall(actor.Simcall{Kind: actor.KindSleep, Duration: 1e9})
		daemonKilled = false // never reached: Kill unwinds before this line runs
	})
	e.OnActorExit.Connect(func(a *actor.Actor) {
		if a.ID == daemon.ID {
			daemonKilled = true
		}
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !daemonKilled {
		t.Fatalf("expected the daemon actor to be killed once the worker exited")
	}
	if e.liveCount != 0 {
		t.Fatalf("expected no live actors after Run, got %d", e.liveCount)
	}
}

// TestEngineRaisesBreakpointOnce grounds spec's debug-breakpoint trap: the
// first event-date jump that reaches or passes the armed date (here the
// exec's completion at t=20, the only event) fires OnBreakpoint exactly once
// with the date actually reached.
func TestEngineRaisesBreakpointOnce(t *testing.T) {
	e := newTwoHostEngine(t, 1, 0)
	e.SetBreakpoint(5)
	var hits []float64
	e.OnBreakpoint.Connect(func(t float64) { hits = append(hits, t) })

	e.Spawn("h1", "a", func(a *actor.Actor) {
		act, err := e.NewExec("exec", "h1", 20, 0)
		if err != nil {
			t.Errorf("NewExec: %v", err)
			return
		}
		a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: -1})
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly one breakpoint hit, got %v", hits)
	}
	almostEqual(t, hits[0], 20, 1e-6)
}
