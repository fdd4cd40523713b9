package metrics

import (
	"testing"

	"github.com/opendsim/kernel/internal/engine"
)

func TestCollectorAggregate(t *testing.T) {
	c := NewCollector()
	for _, v := range []float64{1, 2, 3, 4, 5} {
		c.Record("latency", v, v, nil)
	}
	agg := c.Aggregate("latency")
	if agg.Count != 5 {
		t.Fatalf("Count = %d, want 5", agg.Count)
	}
	if agg.Sum != 15 {
		t.Fatalf("Sum = %v, want 15", agg.Sum)
	}
	if agg.Min != 1 || agg.Max != 5 {
		t.Fatalf("Min/Max = %v/%v, want 1/5", agg.Min, agg.Max)
	}
	if agg.Mean != 3 {
		t.Fatalf("Mean = %v, want 3", agg.Mean)
	}
}

func TestCollectorAggregateEmpty(t *testing.T) {
	c := NewCollector()
	agg := c.Aggregate("missing")
	if agg.Count != 0 {
		t.Fatalf("expected zero Aggregation for an unrecorded metric, got %+v", agg)
	}
}

func TestCollectorNamesSorted(t *testing.T) {
	c := NewCollector()
	c.Record("zeta", 0, 1, nil)
	c.Record("alpha", 0, 1, nil)
	names := c.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("Names() = %v, want sorted [alpha zeta]", names)
	}
}

func TestConservationReportCatchesShortDelivery(t *testing.T) {
	var report ConservationReport
	report.Record(ConservationCheck{Name: "exec-1", Requested: 100, Delivered: 100, FinishedOK: true})
	report.Record(ConservationCheck{Name: "exec-2", Requested: 100, Delivered: 40, FinishedOK: true})

	violations := report.Violations()
	if len(violations) != 1 {
		t.Fatalf("expected exactly one violation, got %d: %v", len(violations), violations)
	}
}

func TestConservationReportAllowsPartialDeliveryOnFailure(t *testing.T) {
	var report ConservationReport
	report.Record(ConservationCheck{Name: "exec-canceled", Requested: 100, Delivered: 40, FinishedOK: false})

	if violations := report.Violations(); len(violations) != 0 {
		t.Fatalf("a canceled activity may deliver less than requested, got violations: %v", violations)
	}
}

func TestConservationReportCatchesOverDelivery(t *testing.T) {
	var report ConservationReport
	report.Record(ConservationCheck{Name: "exec-over", Requested: 100, Delivered: 110, FinishedOK: false})

	if violations := report.Violations(); len(violations) != 1 {
		t.Fatalf("expected an over-delivery violation regardless of FinishedOK, got %v", violations)
	}
}

func TestRenderDeadlockNil(t *testing.T) {
	summary := RenderDeadlock(nil)
	if len(summary.BlockedByID) != 0 {
		t.Fatalf("expected an empty summary for a nil report")
	}
	if summary.String() != "no deadlock" {
		t.Fatalf("String() = %q, want %q", summary.String(), "no deadlock")
	}
}

func TestRenderDeadlockGroupsByHost(t *testing.T) {
	report := &engine.DeadlockReport{
		At: 12.5,
		Blocked: []engine.BlockedActor{
			{ActorID: 1, Name: "a", HostName: "h1", Waiting: "mailbox rendezvous"},
			{ActorID: 2, Name: "b", HostName: "h1", Waiting: "exec"},
			{ActorID: 3, Name: "c", HostName: "h2", Waiting: "mailbox rendezvous"},
		},
	}
	summary := RenderDeadlock(report)
	if summary.At != 12.5 {
		t.Fatalf("At = %v, want 12.5", summary.At)
	}
	if len(summary.ByHost["h1"]) != 2 || len(summary.ByHost["h2"]) != 1 {
		t.Fatalf("unexpected host grouping: %+v", summary.ByHost)
	}
	if len(summary.BlockedByID) != 3 {
		t.Fatalf("expected 3 blocked entries, got %d", len(summary.BlockedByID))
	}
}
