package resource

import "testing"

// TestDiskReadWriteShareAggregate grounds DiskImpl.cpp's seal(): a
// simultaneous full-speed read and write on the same disk both throttle to
// the aggregate constraint, capped at max(readBW, writeBW).
func TestDiskReadWriteShareAggregate(t *testing.T) {
	m := NewDiskModel(false)
	d := NewDisk(m, "disk0", 100, 100)

	r := d.Read(0, 1000)
	w := d.Write(0, 1000)
	m.system().Solve()

	// Aggregate constraint (capacity 100) is shared fairly between the two.
	almostEqual(t, r.Rate(), 50, testPrecision)
	almostEqual(t, w.Rate(), 50, testPrecision)
}

func TestDiskReadAloneReachesPeakBandwidth(t *testing.T) {
	m := NewDiskModel(false)
	d := NewDisk(m, "disk0", 100, 40)

	r := d.Read(0, 1000)
	m.system().Solve()

	almostEqual(t, r.Rate(), 100, testPrecision)
}

// TestDiskAsymmetricBandwidthAggregate checks the aggregate cap is the max
// of the two peaks, not their sum, so two concurrent reads still cap at the
// read constraint's own capacity rather than the aggregate.
func TestDiskAsymmetricBandwidthAggregate(t *testing.T) {
	m := NewDiskModel(false)
	d := NewDisk(m, "disk0", 200, 50)

	a := d.Read(0, 1000)
	b := d.Read(0, 1000)
	m.system().Solve()

	almostEqual(t, a.Rate(), 100, testPrecision)
	almostEqual(t, b.Rate(), 100, testPrecision)
}

func TestDiskTurnOffStallsActions(t *testing.T) {
	m := NewDiskModel(false)
	d := NewDisk(m, "disk0", 100, 100)

	r := d.Read(0, 1000)
	m.system().Solve()
	almostEqual(t, r.Rate(), 100, testPrecision)

	d.TurnOff()
	m.system().Solve()
	almostEqual(t, r.Rate(), 0, testPrecision)

	d.TurnOn()
	m.system().Solve()
	almostEqual(t, r.Rate(), 100, testPrecision)
}
