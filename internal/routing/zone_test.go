package routing

import (
	"testing"

	"github.com/opendsim/kernel/internal/resource"
)

func testLink(name string, latency float64) *resource.Link {
	m := resource.NewLinkModel(false)
	return resource.NewLink(m, name, 1e9, latency, resource.Shared)
}

func TestZoneExplicitRouteRoundTrip(t *testing.T) {
	z := NewZone("z0", []string{"a", "b"})
	l := testLink("ab", 0.001)

	if err := z.AddSymmetricRoute("a", "b", []*resource.Link{l}); err != nil {
		t.Fatalf("AddSymmetricRoute: %v", err)
	}

	r, ok := z.GetRoute("a", "b")
	if !ok || len(r.Links) != 1 || r.Links[0] != l {
		t.Fatalf("expected a->b route via l, got %+v ok=%v", r, ok)
	}
	rBack, ok := z.GetRoute("b", "a")
	if !ok || len(rBack.Links) != 1 || rBack.Links[0] != l {
		t.Fatalf("expected symmetric b->a route, got %+v ok=%v", rBack, ok)
	}
}

func TestZoneLoopbackIsZeroLatency(t *testing.T) {
	z := NewZone("z0", []string{"a"})
	r, ok := z.GetRoute("a", "a")
	if !ok || len(r.Links) != 0 || r.Latency != 0 {
		t.Fatalf("expected zero-latency loopback, got %+v ok=%v", r, ok)
	}
}

func TestZoneRejectsDuplicateRoute(t *testing.T) {
	z := NewZone("z0", []string{"a", "b"})
	l := testLink("ab", 0)
	if err := z.AddRoute("a", "b", []*resource.Link{l}); err != nil {
		t.Fatalf("first AddRoute: %v", err)
	}
	if err := z.AddRoute("a", "b", []*resource.Link{l}); err == nil {
		t.Fatalf("expected duplicate route to be rejected")
	}
}

// TestZoneCompleteFillsTransitiveRoute mirrors FloydZone: a chain a-b-c
// with only adjacent routes declared gets an a->c route stitched from both
// hops after Complete().
func TestZoneCompleteFillsTransitiveRoute(t *testing.T) {
	z := NewZone("z0", []string{"a", "b", "c"})
	ab := testLink("ab", 0.001)
	bc := testLink("bc", 0.002)
	if err := z.AddSymmetricRoute("a", "b", []*resource.Link{ab}); err != nil {
		t.Fatalf("a-b: %v", err)
	}
	if err := z.AddSymmetricRoute("b", "c", []*resource.Link{bc}); err != nil {
		t.Fatalf("b-c: %v", err)
	}

	z.Complete()

	r, ok := z.GetRoute("a", "c")
	if !ok {
		t.Fatalf("expected a completed a->c route")
	}
	if len(r.Links) != 2 || r.Links[0] != ab || r.Links[1] != bc {
		t.Fatalf("expected route [ab, bc], got %+v", r.Links)
	}
	almostEqualLatency(t, r.Latency, 0.003)
}

func almostEqualLatency(t *testing.T, got, want float64) {
	t.Helper()
	const eps = 1e-12
	if got < want-eps || got > want+eps {
		t.Fatalf("got latency %v, want %v", got, want)
	}
}
