package resource

import (
	"fmt"
	"strings"

	"github.com/opendsim/kernel/pkg/config"
)

// Manager owns the three resource models (Cpu, Disk, Link) that back a
// simulation run, plus the platform objects built from a config.Scenario:
// every Host, indexed by ID, and every Link, indexed by ID. It is the
// runtime counterpart of a SimGrid platform file, built once at run start
// from the parsed Scenario rather than re-derived from an XML DOM.
type Manager struct {
	CpuModel      *CpuModel
	DiskModel     *DiskModel
	LinkModel     *LinkModel
	ParallelModel *ParallelModel

	Hosts map[string]*Host
	Links map[string]*Link

	// Profiles is every event timeline attached while building the platform
	// (a host's speed trace, a link's bandwidth trace, a disk's read/write
	// trace), for the engine to poll and apply as virtual time crosses each
	// scheduled date.
	Profiles []ProfileAttachment

	// Debug carries the scenario's scheduler-level debugging knobs (e.g.
	// debug/breakpoint), forwarded verbatim for the engine to arm.
	Debug *config.DebugTuning
}

// buildProfile converts a scenario's dated event list into a Profile, or
// nil if the resource has no timeline configured.
func buildProfile(events []config.ProfileEvent) *Profile {
	if len(events) == 0 {
		return nil
	}
	out := make([]ProfileEvent, len(events))
	for i, ev := range events {
		out[i] = ProfileEvent{Date: ev.Date, Value: ev.Value}
		if ev.On != nil {
			out[i].IsStateChange = true
			out[i].On = *ev.On
		}
	}
	return NewProfile(out)
}

// LoadScenario builds a Manager's resources from a parsed, already-validated
// Scenario. lazyUpdate is forwarded to every model's selective-update flag
// (see internal/lmm's dirty-component tracking).
func LoadScenario(cfg *config.Scenario, lazyUpdate bool) (*Manager, error) {
	m := &Manager{
		CpuModel:      NewCpuModel(lazyUpdate),
		DiskModel:     NewDiskModel(lazyUpdate),
		LinkModel:     NewLinkModel(lazyUpdate),
		ParallelModel: NewParallelModel(lazyUpdate),
		Hosts:         make(map[string]*Host),
		Links:         make(map[string]*Link),
	}

	if cfg.Precision > 0 {
		for _, model := range m.Models() {
			model.SetPrecision(cfg.Precision)
		}
	}
	if cfg.Network != nil {
		m.LinkModel.SetTuning(cfg.Network.LatencyFactor, cfg.Network.BandwidthFactor, cfg.Network.Crosstraffic)
	}
	m.Debug = cfg.Debug

	for _, h := range cfg.Hosts {
		if _, exists := m.Hosts[h.ID]; exists {
			return nil, fmt.Errorf("resource: duplicate host id %q", h.ID)
		}
		speed := h.Speed
		if speed <= 0 {
			speed = 1e9
		}
		speeds := append([]float64{speed}, h.Speeds...)
		cpu := NewCpu(m.CpuModel, h.ID, h.Cores, speeds)
		if p := buildProfile(h.SpeedProfile); p != nil {
			cpu.SetProfile(p)
			m.Profiles = append(m.Profiles, ProfileAttachment{Profile: p, Target: cpu})
		}
		host := newHost(h.ID, cpu)
		for _, d := range h.Disks {
			if _, exists := host.Disks[d.ID]; exists {
				return nil, fmt.Errorf("resource: host %q has duplicate disk id %q", h.ID, d.ID)
			}
			disk := NewDisk(m.DiskModel, d.ID, d.ReadBWBps, d.WriteBWBps)
			if p := buildProfile(d.ReadProfile); p != nil {
				disk.SetReadProfile(p)
				m.Profiles = append(m.Profiles, ProfileAttachment{Profile: p, Target: disk})
			}
			if p := buildProfile(d.WriteProfile); p != nil {
				disk.SetWriteProfile(p)
				m.Profiles = append(m.Profiles, ProfileAttachment{Profile: p, Target: DiskWriteSide{Disk: disk}})
			}
			host.Disks[d.ID] = disk
		}
		m.Hosts[h.ID] = host
	}

	for _, l := range cfg.Links {
		if _, exists := m.Links[l.ID]; exists {
			return nil, fmt.Errorf("resource: duplicate link id %q", l.ID)
		}
		policy, err := parseSharingPolicy(l.SharingPolicy)
		if err != nil {
			return nil, fmt.Errorf("resource: link %q: %w", l.ID, err)
		}
		link := NewLink(m.LinkModel, l.ID, l.BandwidthBps, l.LatencyS, policy)
		if p := buildProfile(l.Profile); p != nil {
			link.SetProfile(p)
			m.Profiles = append(m.Profiles, ProfileAttachment{Profile: p, Target: link})
		}
		m.Links[l.ID] = link
	}

	return m, nil
}

func parseSharingPolicy(s string) (SharingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return Shared, nil
	case "fatpipe":
		return Fatpipe, nil
	case "splitduplex", "split_duplex":
		return SplitDuplex, nil
	case "wifi":
		return Wifi, nil
	default:
		return Shared, fmt.Errorf("unknown sharing_policy %q", s)
	}
}

// Host looks up a host by ID.
func (m *Manager) Host(id string) (*Host, bool) {
	h, ok := m.Hosts[id]
	return h, ok
}

// Link looks up a link by ID.
func (m *Manager) Link(id string) (*Link, bool) {
	l, ok := m.Links[id]
	return l, ok
}

// Models returns the resource models, in the fixed order the engine walks
// them each round to find the soonest next event across all of them.
func (m *Manager) Models() []Model {
	return []Model{m.CpuModel, m.DiskModel, m.LinkModel, m.ParallelModel}
}
