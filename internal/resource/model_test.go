package resource

import "testing"

func TestActionSuspendResumeTogglesShare(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{100})

	a := cpu.Execute(0, 1000, 0)
	b := cpu.Execute(0, 1000, 0)
	m.system().Solve()
	almostEqual(t, a.Rate(), 50, testPrecision)

	a.Suspend()
	m.system().Solve()
	almostEqual(t, a.Rate(), 0, testPrecision)
	almostEqual(t, b.Rate(), 100, testPrecision)

	a.Resume()
	m.system().Solve()
	almostEqual(t, a.Rate(), 50, testPrecision)
}

func TestActionCancelDisablesVariableAndReturnsCancelError(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{100})

	a := cpu.Execute(0, 1000, 0)
	b := cpu.Execute(0, 1000, 0)
	m.system().Solve()

	if err := a.Cancel(5); err == nil {
		t.Fatalf("expected a cancel error")
	}
	if a.State() != ActionFailed {
		t.Fatalf("expected canceled action to be Failed, got %v", a.State())
	}
	if a.FinishDate() != 5 {
		t.Fatalf("expected finish date 5, got %v", a.FinishDate())
	}

	m.system().Solve()
	almostEqual(t, b.Rate(), 100, testPrecision)

	// Canceling twice is a no-op.
	if err := a.Cancel(9); err != nil {
		t.Fatalf("expected second cancel to be a no-op, got %v", err)
	}
}

func TestModelNextEventReturnsSoonestCompletion(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 2, []float64{50})

	cpu.Execute(0, 100, 0) // 1 core's worth of demand each, evenly split
	cpu.Execute(0, 300, 0)
	m.system().Solve()

	next := m.NextEvent(0)
	if next < 0 {
		t.Fatalf("expected a positive next-event date, got %v", next)
	}
}

func TestModelAdvanceCompactsFinishedActions(t *testing.T) {
	m := NewCpuModel(false)
	cpu := NewCpu(m, "h1", 1, []float64{10})

	short := cpu.Execute(0, 10, 0)
	long := cpu.Execute(0, 1000, 0)

	finished, failed := m.Advance(0, 2)
	if len(failed) != 0 {
		t.Fatalf("expected no failures")
	}
	if len(finished) != 1 || finished[0] != short {
		t.Fatalf("expected only the short exec to finish")
	}
	if long.State() != ActionStarted {
		t.Fatalf("expected the long exec to still be running")
	}
}
