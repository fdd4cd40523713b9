package routing

import (
	"fmt"
	"strings"

	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/pkg/config"
)

// Table indexes every Zone built from a scenario by ID, plus a flat
// host->zone lookup so the engine can find the right zone for a route
// query without scanning every zone.
type Table struct {
	Zones    map[string]*Zone
	HostZone map[string]string
}

// Build constructs every NetZone declared in cfg, resolving each route's
// link IDs against mgr's link registry, then completing missing routes per
// each zone's configured algorithm ("full", the default, leaves gaps;
// "floyd" runs Complete()).
func Build(cfg *config.Scenario, mgr *resource.Manager) (*Table, error) {
	t := &Table{Zones: make(map[string]*Zone), HostZone: make(map[string]string)}

	for _, zc := range cfg.NetZones {
		z := NewZone(zc.ID, zc.Hosts)
		for _, h := range zc.Hosts {
			t.HostZone[h] = zc.ID
		}
		for _, re := range zc.Routes {
			links := make([]*resource.Link, 0, len(re.Links))
			for _, lid := range re.Links {
				l, ok := mgr.Link(lid)
				if !ok {
					return nil, fmt.Errorf("routing: zone %s route %s->%s references unknown link %s", zc.ID, re.Src, re.Dst, lid)
				}
				links = append(links, l)
			}
			if err := z.AddRoute(re.Src, re.Dst, links); err != nil {
				return nil, err
			}
		}
		switch strings.ToLower(zc.Algorithm) {
		case "floyd":
			z.Complete()
		case "", "full":
			// FullZone semantics: only the explicitly declared routes exist.
		default:
			return nil, fmt.Errorf("routing: zone %s: unknown algorithm %q", zc.ID, zc.Algorithm)
		}
		t.Zones[zc.ID] = z
	}

	return t, nil
}

// Route finds the route between two hosts, looking up the zone that owns
// src (spec.md's routing model keeps every scenario within a single flat
// zone unless netzones are explicitly declared, so a scenario with no
// netzones simply has no routes — callers then fail the communication with
// a NetworkFailure).
func (t *Table) Route(src, dst string) (*Route, bool) {
	zid, ok := t.HostZone[src]
	if !ok {
		return nil, false
	}
	z, ok := t.Zones[zid]
	if !ok {
		return nil, false
	}
	return z.GetRoute(src, dst)
}
