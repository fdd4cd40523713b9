package resource

import "sort"

// ProfileEvent is one dated change to a resource's state, grounded on
// Resource.hpp's apply_event(): at Date, either the resource's peak
// capacity changes to Value, or (if IsStateChange) it turns on/off.
type ProfileEvent struct {
	Date          float64
	Value         float64
	IsStateChange bool
	On            bool
}

// Profile is a resource's sorted event timeline (a speed trace for a Cpu, a
// bandwidth trace for a Link, an availability trace for a Disk). The engine
// folds NextDate into its next-event-date scan and, once virtual time
// reaches each date, consumes the event with Pop and applies it with Apply.
type Profile struct {
	events []ProfileEvent
	cursor int
}

// NewProfile builds a Profile from events, which need not be pre-sorted.
func NewProfile(events []ProfileEvent) *Profile {
	sorted := append([]ProfileEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	return &Profile{events: sorted}
}

// NextDate returns the date of the next unconsumed event, or -1 if the
// profile is exhausted.
func (p *Profile) NextDate() float64 {
	if p.cursor >= len(p.events) {
		return -1
	}
	return p.events[p.cursor].Date
}

// Pop returns the next unconsumed event and advances the cursor. Callers
// must check NextDate() >= 0 (or ok) before relying on the result.
func (p *Profile) Pop() (ProfileEvent, bool) {
	if p.cursor >= len(p.events) {
		return ProfileEvent{}, false
	}
	e := p.events[p.cursor]
	p.cursor++
	return e, true
}

// applier is implemented by every resource type that a Profile can drive.
type applier interface {
	SetCapacityHint(value float64)
	TurnOn()
	TurnOff()
}

// ProfileAttachment pairs one attached Profile with the resource it drives.
// Manager.LoadScenario collects these while building the platform so the
// engine can poll and apply them at Run start, without the engine package
// needing to know about Cpu/Link/Disk internals — only the applier method
// set (SetCapacityHint/TurnOn/TurnOff), which it can express as its own
// interface value since Go's interface satisfaction is structural.
type ProfileAttachment struct {
	Profile *Profile
	Target  applier
}

// Apply pushes one event onto a resource. Cpu/Link/Disk each provide a
// small adapter satisfying applier so the engine's profile-tick logic stays
// generic across resource kinds.
func Apply(a applier, e ProfileEvent) {
	if e.IsStateChange {
		if e.On {
			a.TurnOn()
		} else {
			a.TurnOff()
		}
		return
	}
	a.SetCapacityHint(e.Value)
}

// SetCapacityHint lets a Cpu profile drive its speed directly (bypassing
// the p-state table, for a continuous speed trace).
func (c *Cpu) SetCapacityHint(value float64) {
	c.speed = value
	if c.on {
		c.constraint.SetCapacity(float64(c.cores) * value)
	}
}

// SetCapacityHint drives a Link's bandwidth from its profile.
func (l *Link) SetCapacityHint(value float64) {
	l.bandwidth = value
	if l.on {
		l.up.SetCapacity(value)
		if l.down != l.up {
			l.down.SetCapacity(value)
		}
	}
}

// SetCapacityHint drives a Disk's read bandwidth from its profile.
func (d *Disk) SetCapacityHint(value float64) {
	d.readBW = value
	if d.on {
		d.readConstr.SetCapacity(value)
		agg := d.readBW
		if d.writeBW > agg {
			agg = d.writeBW
		}
		d.aggregate.SetCapacity(agg)
	}
}

// DiskWriteSide adapts a Disk's write bandwidth as an applier target, for a
// profile attached with SetWriteProfile (a Disk has two independent
// timelines, one per direction).
type DiskWriteSide struct{ Disk *Disk }

func (w DiskWriteSide) SetCapacityHint(value float64) {
	d := w.Disk
	d.writeBW = value
	if d.on {
		d.writeConstr.SetCapacity(value)
		agg := d.readBW
		if d.writeBW > agg {
			agg = d.writeBW
		}
		d.aggregate.SetCapacity(agg)
	}
}

func (w DiskWriteSide) TurnOn()  { w.Disk.TurnOn() }
func (w DiskWriteSide) TurnOff() { w.Disk.TurnOff() }
