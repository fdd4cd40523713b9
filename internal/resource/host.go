package resource

// Host bundles the resources spec.md associates with one named machine: a
// Cpu and zero or more Disks. Links belong to the routing topology, not to
// a single host, so they live in the Manager's link registry instead.
type Host struct {
	Name  string
	Cpu   *Cpu
	Disks map[string]*Disk
}

func newHost(name string, cpu *Cpu) *Host {
	return &Host{Name: name, Cpu: cpu, Disks: make(map[string]*Disk)}
}

// Disk looks up one of the host's disks by name.
func (h *Host) Disk(name string) (*Disk, bool) {
	d, ok := h.Disks[name]
	return d, ok
}

// IsOn reports whether the host's Cpu is powered on. A host with its Cpu
// off cannot run Execs, but its disks and the links it borders are
// independent resources that keep their own on/off state.
func (h *Host) IsOn() bool { return h.Cpu.IsOn() }
