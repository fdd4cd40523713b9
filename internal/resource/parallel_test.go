package resource

import "testing"

// TestParallelExecBalancesAcrossHeterogeneousHosts checks that a task
// spanning two hosts of different CPU capacity, with no inter-host bytes,
// settles at the rate of its slower host (the bottleneck leg).
func TestParallelExecBalancesAcrossHeterogeneousHosts(t *testing.T) {
	pm := NewParallelModel(false)
	hostLegs := []HostLeg{
		{HostName: "fast", Capacity: 200, Flops: 100},
		{HostName: "slow", Capacity: 50, Flops: 100},
	}
	a := pm.NewParallelExec(0, hostLegs, nil)
	pm.sys.Solve()

	// task rate v: fast host draws 100*v <= 200 (v <= 2), slow host draws
	// 100*v <= 50 (v <= 0.5). The slower host bottlenecks the shared task
	// rate at 0.5 completion-fraction/s.
	almostEqual(t, a.Rate(), 0.5, testPrecision)
}

// TestParallelExecCoSchedulesLinkLeg checks that a task's network leg can
// bottleneck it even when every host has ample CPU headroom.
func TestParallelExecCoSchedulesLinkLeg(t *testing.T) {
	pm := NewParallelModel(false)
	hostLegs := []HostLeg{
		{HostName: "a", Capacity: 1000, Flops: 10},
		{HostName: "b", Capacity: 1000, Flops: 10},
	}
	linkLegs := []LinkLeg{
		{LinkName: "l0", Capacity: 20, Bytes: 100},
	}
	a := pm.NewParallelExec(0, hostLegs, linkLegs)
	pm.sys.Solve()

	// host legs allow v <= 100; the link leg allows v <= 20/100 = 0.2.
	almostEqual(t, a.Rate(), 0.2, testPrecision)
}

// TestParallelExecSharesHostConstraintAcrossTasks checks that two parallel
// execs both touching the same host fairly split that host's capacity,
// since ParallelModel reuses one persistent constraint per host name.
func TestParallelExecSharesHostConstraintAcrossTasks(t *testing.T) {
	pm := NewParallelModel(false)
	legs := []HostLeg{{HostName: "shared-host", Capacity: 100, Flops: 1}}
	a := pm.NewParallelExec(0, legs, nil)
	b := pm.NewParallelExec(0, legs, nil)
	pm.sys.Solve()

	almostEqual(t, a.Rate(), 50, testPrecision)
	almostEqual(t, b.Rate(), 50, testPrecision)
}
