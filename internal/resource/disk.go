package resource

import "github.com/opendsim/kernel/internal/lmm"

// DiskModel is the max-min system shared by every host's Disk resources.
type DiskModel struct {
	baseModel
}

// NewDiskModel creates a Disk model.
func NewDiskModel(lazyUpdate bool) *DiskModel {
	return &DiskModel{baseModel: newBaseModel("disk", lazyUpdate)}
}

// Disk grounds src/kernel/resource/DiskImpl.cpp's seal(): every disk
// contributes THREE constraints to the solver — an independent read-
// bandwidth constraint, an independent write-bandwidth constraint, and an
// aggregate constraint capped at max(readBW, writeBW) that every read AND
// write action also expands into. This reproduces the documented invariant
// that a disk doing simultaneous full-speed read and write throttles both,
// since real disks rarely sustain read+write at their individual peaks
// concurrently.
type Disk struct {
	model        *DiskModel
	name         string
	readBW       float64
	writeBW      float64
	readConstr   *lmm.Constraint
	writeConstr  *lmm.Constraint
	aggregate    *lmm.Constraint
	on           bool
	readProfile  *Profile
	writeProfile *Profile
}

// NewDisk registers a new Disk with independent read/write peak
// bandwidths (bytes/s).
func NewDisk(model *DiskModel, name string, readBW, writeBW float64) *Disk {
	d := &Disk{model: model, name: name, readBW: readBW, writeBW: writeBW, on: true}
	d.readConstr = model.sys.ConstraintNew(readBW, true)
	d.writeConstr = model.sys.ConstraintNew(writeBW, true)
	agg := readBW
	if writeBW > agg {
		agg = writeBW
	}
	d.aggregate = model.sys.ConstraintNew(agg, true)
	return d
}

// Name returns the disk's name.
func (d *Disk) Name() string { return d.name }

// IsOn reports whether the disk is powered on.
func (d *Disk) IsOn() bool { return d.on }

// ReadLoad returns the read constraint's usage/capacity ratio.
func (d *Disk) ReadLoad() float64 {
	if d.readConstr.Capacity() <= 0 {
		return 0
	}
	return d.readConstr.Usage() / d.readConstr.Capacity()
}

// WriteLoad returns the write constraint's usage/capacity ratio.
func (d *Disk) WriteLoad() float64 {
	if d.writeConstr.Capacity() <= 0 {
		return 0
	}
	return d.writeConstr.Usage() / d.writeConstr.Capacity()
}

// TurnOff zeroes every constraint's capacity, stalling live actions.
func (d *Disk) TurnOff() {
	if !d.on {
		return
	}
	d.on = false
	d.readConstr.SetCapacity(0)
	d.writeConstr.SetCapacity(0)
	d.aggregate.SetCapacity(0)
}

// TurnOn restores the disk's constraints to their configured bandwidths.
func (d *Disk) TurnOn() {
	if d.on {
		return
	}
	d.on = true
	d.readConstr.SetCapacity(d.readBW)
	d.writeConstr.SetCapacity(d.writeBW)
	agg := d.readBW
	if d.writeBW > agg {
		agg = d.writeBW
	}
	d.aggregate.SetCapacity(agg)
}

// SetReadProfile / SetWriteProfile attach bandwidth profiles.
func (d *Disk) SetReadProfile(p *Profile)  { d.readProfile = p }
func (d *Disk) SetWriteProfile(p *Profile) { d.writeProfile = p }

// ReadProfile / WriteProfile return the attached profiles, or nil.
func (d *Disk) ReadProfile() *Profile  { return d.readProfile }
func (d *Disk) WriteProfile() *Profile { return d.writeProfile }

// Read schedules a read Action for `bytes` bytes.
func (d *Disk) Read(now, bytes float64) *Action {
	v := d.model.sys.VariableNew(1)
	d.model.sys.Expand(d.readConstr, v, 1)
	d.model.sys.Expand(d.aggregate, v, 1)
	a := newAction(d.model, d, v, bytes, now)
	d.model.track(a)
	return a
}

// Write schedules a write Action for `bytes` bytes.
func (d *Disk) Write(now, bytes float64) *Action {
	v := d.model.sys.VariableNew(1)
	d.model.sys.Expand(d.writeConstr, v, 1)
	d.model.sys.Expand(d.aggregate, v, 1)
	a := newAction(d.model, d, v, bytes, now)
	d.model.track(a)
	return a
}

// FailActions fails every read/write currently running on this Disk with a
// KindStorageFailure, for the engine to call right after TurnOff.
func (d *Disk) FailActions(now float64) []*Action {
	return d.model.failOwned(d, now)
}
