// Package routing computes end-to-end link paths between hosts, grounded
// on SimGrid's kernel/routing zone hierarchy (NetZoneImpl.hpp, FullZone.cpp,
// FloydZone.cpp): a NetZone owns a set of member hosts and a routing table
// mapping (src, dst) pairs to an ordered list of links, either declared
// explicitly (FullZone's route table) or completed automatically by an
// all-pairs shortest path algorithm (FloydZone's Floyd-Warshall).
package routing

import (
	"fmt"

	"github.com/opendsim/kernel/internal/resource"
)

// Route is the ordered list of links a communication traverses from src to
// dst, plus the total latency (sum of each link's fixed latency) FullZone's
// add_link_latency accumulates alongside the link list.
type Route struct {
	Links   []*resource.Link
	Latency float64
}

// Zone is one routing domain: a set of member host names plus a table of
// routes between them. It is built once from a config.NetZone by Build
// and never mutated afterward, matching NetZoneImpl::seal()'s do_seal()
// finalization step.
type Zone struct {
	ID    string
	Hosts map[string]bool
	table map[string]map[string]*Route
}

// NewZone creates an empty zone over the given member hosts.
func NewZone(id string, hosts []string) *Zone {
	z := &Zone{ID: id, Hosts: make(map[string]bool, len(hosts)), table: make(map[string]map[string]*Route)}
	for _, h := range hosts {
		z.Hosts[h] = true
	}
	return z
}

// AddRoute declares an explicit src->dst route, mirroring FullZone::add_route.
// The route is NOT implicitly made symmetrical; callers wanting a bidirectional
// link declare both directions (or call AddSymmetricRoute).
func (z *Zone) AddRoute(src, dst string, links []*resource.Link) error {
	if _, exists := z.route(src, dst); exists {
		return fmt.Errorf("routing: route %s->%s already exists in zone %s", src, dst, z.ID)
	}
	z.setRoute(src, dst, links)
	return nil
}

// AddSymmetricRoute declares src->dst and, if src != dst, the reverse dst->src
// over the same links traversed in the opposite order.
func (z *Zone) AddSymmetricRoute(src, dst string, links []*resource.Link) error {
	if err := z.AddRoute(src, dst, links); err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	reversed := make([]*resource.Link, len(links))
	for i, l := range links {
		reversed[len(links)-1-i] = l
	}
	return z.AddRoute(dst, src, reversed)
}

func (z *Zone) setRoute(src, dst string, links []*resource.Link) {
	if z.table[src] == nil {
		z.table[src] = make(map[string]*Route)
	}
	latency := 0.0
	for _, l := range links {
		latency += l.Latency()
	}
	z.table[src][dst] = &Route{Links: links, Latency: latency}
}

func (z *Zone) route(src, dst string) (*Route, bool) {
	m, ok := z.table[src]
	if !ok {
		return nil, false
	}
	r, ok := m[dst]
	return r, ok
}

// GetRoute returns the src->dst route, matching NetZoneImpl::get_local_route.
// It reports ok=false when no route was ever declared (a hole neither
// FullZone's explicit table nor a Complete() pass filled in).
func (z *Zone) GetRoute(src, dst string) (*Route, bool) {
	if src == dst {
		return &Route{}, true // loopback: zero-latency, no links traversed
	}
	return z.route(src, dst)
}
