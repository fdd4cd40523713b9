package resource

import "testing"

const testPrecision = 1e-9

func almostEqual(t *testing.T, got, want, eps float64) {
	t.Helper()
	if got < want-eps || got > want+eps {
		t.Fatalf("got %v, want %v (eps %v)", got, want, eps)
	}
}

// TestCpuFairSharesAmongExecs mirrors internal/lmm's fair-sharing scenario:
// two Execs on a single-core, 100 flop/s Cpu each get half the speed.
func TestCpuFairSharesAmongExecs(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{100})

	a := cpu.Execute(0, 100, 0)
	b := cpu.Execute(0, 100, 0)
	m.system().Solve()

	almostEqual(t, a.Rate(), 50, testPrecision)
	almostEqual(t, b.Rate(), 50, testPrecision)
}

// TestCpuMultiCoreScalesCapacity checks the constraint capacity is
// cores*speed, not just speed.
func TestCpuMultiCoreScalesCapacity(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 4, []float64{100})

	a := cpu.Execute(0, 400, 0)
	m.system().Solve()

	almostEqual(t, a.Rate(), 400, testPrecision)
}

// TestCpuBoundedExecuteCapsRateAndFreesResidual mirrors
// TestBoundCapsShareAndFreesResidual: a bounded Exec caps its own rate,
// leaving the rest of the Cpu's capacity to the other Exec.
func TestCpuBoundedExecuteCapsRateAndFreesResidual(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{10})

	bounded := cpu.Execute(0, 100, 2)
	free := cpu.Execute(0, 100, 0)
	m.system().Solve()

	almostEqual(t, bounded.Rate(), 2, testPrecision)
	almostEqual(t, free.Rate(), 8, testPrecision)
}

func TestCpuSetPStateRescalesCapacity(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 2, []float64{100, 50})

	cpu.SetPState(1)
	a := cpu.Execute(0, 100, 0)
	m.system().Solve()

	almostEqual(t, a.Rate(), 100, testPrecision) // 2 cores * 50 flop/s
}

func TestCpuTurnOffStallsRunningExecs(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{100})

	a := cpu.Execute(0, 100, 0)
	m.system().Solve()
	almostEqual(t, a.Rate(), 100, testPrecision)

	cpu.TurnOff()
	m.system().Solve()
	almostEqual(t, a.Rate(), 0, testPrecision)

	if cpu.IsOn() {
		t.Fatalf("expected cpu to report off")
	}
}

func TestCpuExecuteAdvancesAndFinishes(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{50})

	a := cpu.Execute(0, 100, 0)
	finished, failed := m.Advance(0, 2)
	if len(failed) != 0 {
		t.Fatalf("expected no failures, got %d", len(failed))
	}
	if len(finished) != 1 || finished[0] != a {
		t.Fatalf("expected the exec to finish after 2s at 50 flop/s")
	}
	if a.State() != ActionFinished {
		t.Fatalf("expected action state finished, got %v", a.State())
	}
	almostEqual(t, a.Remains(), 0, testPrecision)
}
