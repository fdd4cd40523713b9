package activity

import (
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/simerr"
)

// Io is a disk read or write, wrapping the resource.Action a Disk hands
// back from Read/Write. Grounded on SimGrid's IoImpl.cpp, which likewise
// is a thin activity wrapper over a single DiskImpl Action.
type Io struct {
	name   string
	action *resource.Action
	state  State
	err    error
}

// NewIo wraps an already-started disk Action (the caller picks Read or
// Write before constructing the activity).
func NewIo(name string, action *resource.Action) *Io {
	return &Io{name: name, action: action, state: Running}
}

func (io *Io) Name() string             { return io.name }
func (io *Io) State() State             { return io.state }
func (io *Io) Err() error               { return io.err }
func (io *Io) Action() *resource.Action { return io.action }
func (io *Io) Remains() float64         { return io.action.Remains() }

func (io *Io) Test() bool {
	if io.state != Running {
		return true
	}
	switch io.action.State() {
	case resource.ActionFinished:
		io.state = Done
	case resource.ActionFailed:
		io.state = Failed
		io.err = simerr.StorageFailure("io %q: disk turned off mid-transfer", io.name)
	}
	return io.state != Running
}

func (io *Io) Cancel(now float64) {
	if io.state != Running {
		return
	}
	io.err = io.action.Cancel(now)
	io.state = Canceled
}

func (io *Io) Suspend() { io.action.Suspend() }
func (io *Io) Resume()  { io.action.Resume() }
