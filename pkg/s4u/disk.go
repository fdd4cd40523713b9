package s4u

import (
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Disk is the actor-facing handle to one named disk on one named host.
type Disk struct {
	eng      *engine.Engine
	HostName string
	Name     string
}

// GetDisk returns the façade for hostName's diskName.
func GetDisk(eng *engine.Engine, hostName, diskName string) *Disk {
	return &Disk{eng: eng, HostName: hostName, Name: diskName}
}

// Read blocks the calling actor until bytes have been read, or deadline
// (< 0 for none) elapses first.
func (d *Disk) Read(a *actor.Actor, bytes, deadline float64) error {
	act, err := d.eng.NewIoRead("io-read("+d.Name+")", d.HostName, d.Name, bytes)
	if err != nil {
		return err
	}
	return a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: deadline})
}

// Write blocks the calling actor until bytes have been written, or
// deadline (< 0 for none) elapses first.
func (d *Disk) Write(a *actor.Actor, bytes, deadline float64) error {
	act, err := d.eng.NewIoWrite("io-write("+d.Name+")", d.HostName, d.Name, bytes)
	if err != nil {
		return err
	}
	return a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: deadline})
}
