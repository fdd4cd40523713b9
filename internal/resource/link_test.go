package resource

import (
	"testing"

	"github.com/opendsim/kernel/internal/lmm"
)

func newComm(sys *lmm.System) *lmm.Variable { return sys.VariableNew(1) }

// TestLinkSharedFairSharing mirrors internal/lmm's TestFairSharingOnOneLink:
// two communications on one shared link split its bandwidth evenly.
func TestLinkSharedFairSharing(t *testing.T) {
	m := NewLinkModel(false)
	l := NewLink(m, "l0", 100, 0.001, Shared)

	a := newComm(m.sys)
	b := newComm(m.sys)
	l.ExpandComm(m.sys, a, false, "")
	l.ExpandComm(m.sys, b, false, "")
	m.sys.Solve()

	almostEqual(t, a.Value(), 50, testPrecision)
	almostEqual(t, b.Value(), 50, testPrecision)
}

// TestLinkFatpipeBypassesSharing mirrors TestFatpipeBypassesSharing: every
// communication gets its full demand independent of the others.
func TestLinkFatpipeBypassesSharing(t *testing.T) {
	m := NewLinkModel(false)
	l := NewLink(m, "backbone", 100, 0, Fatpipe)

	a := newComm(m.sys)
	b := newComm(m.sys)
	l.ExpandComm(m.sys, a, false, "")
	l.ExpandComm(m.sys, b, false, "")
	m.sys.Solve()

	almostEqual(t, a.Value(), 100, testPrecision)
	almostEqual(t, b.Value(), 100, testPrecision)
	if !l.IsFatpipe() {
		t.Fatalf("expected link to report fatpipe")
	}
}

// TestLinkSplitDuplexIndependentDirections verifies each direction gets its
// own constraint, so an upstream-saturating flow doesn't throttle a
// downstream one.
func TestLinkSplitDuplexIndependentDirections(t *testing.T) {
	m := NewLinkModel(false)
	l := NewLink(m, "l0", 100, 0, SplitDuplex)

	up1 := newComm(m.sys)
	up2 := newComm(m.sys)
	down := newComm(m.sys)
	l.ExpandComm(m.sys, up1, false, "")
	l.ExpandComm(m.sys, up2, false, "")
	l.ExpandComm(m.sys, down, true, "")
	m.sys.Solve()

	almostEqual(t, up1.Value(), 50, testPrecision)
	almostEqual(t, up2.Value(), 50, testPrecision)
	almostEqual(t, down.Value(), 100, testPrecision)
}

// TestLinkWifiStationCapLayersOnFairShare checks a station cap lower than
// the fair share wins, without affecting stations that have none.
func TestLinkWifiStationCapLayersOnFairShare(t *testing.T) {
	m := NewLinkModel(false)
	l := NewLink(m, "ap0", 100, 0, Wifi)
	l.SetStationBandwidth("phone1", 10)

	capped := newComm(m.sys)
	free := newComm(m.sys)
	l.ExpandComm(m.sys, capped, false, "phone1")
	l.ExpandComm(m.sys, free, false, "laptop1")
	m.sys.Solve()

	almostEqual(t, capped.Value(), 10, testPrecision)
	almostEqual(t, free.Value(), 90, testPrecision)
}

func TestLinkTurnOffZeroesCapacity(t *testing.T) {
	m := NewLinkModel(false)
	l := NewLink(m, "l0", 100, 0, Shared)

	a := newComm(m.sys)
	l.ExpandComm(m.sys, a, false, "")
	m.sys.Solve()
	almostEqual(t, a.Value(), 100, testPrecision)

	l.TurnOff()
	m.sys.Solve()
	almostEqual(t, a.Value(), 0, testPrecision)
	if l.IsOn() {
		t.Fatalf("expected link to report off")
	}

	l.TurnOn()
	m.sys.Solve()
	almostEqual(t, a.Value(), 100, testPrecision)
}
