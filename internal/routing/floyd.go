package routing

import (
	"math"
	"sort"

	"github.com/opendsim/kernel/internal/resource"
)

// Complete runs an all-pairs shortest path pass over the zone's directly
// declared routes and fills in every reachable (src, dst) pair that has no
// explicit route yet, concatenating the link lists along the cheapest path
// found. Grounded on FloydZone.cpp's cost/predecessor tables: cost is a
// route's accumulated latency, and the predecessor table is walked backward
// from dst to src to rebuild the winning path's link list.
func (z *Zone) Complete() {
	hosts := make([]string, 0, len(z.Hosts))
	for h := range z.Hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	n := len(hosts)
	idx := make(map[string]int, n)
	for i, h := range hosts {
		idx[h] = i
	}

	const inf = math.MaxFloat64
	cost := make([][]float64, n)
	pred := make([][]int, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		pred[i] = make([]int, n)
		for j := range cost[i] {
			cost[i][j] = inf
			pred[i][j] = -1
		}
		cost[i][i] = 0
	}

	for src, m := range z.table {
		si, ok := idx[src]
		if !ok {
			continue
		}
		for dst, r := range m {
			di, ok := idx[dst]
			if !ok || si == di {
				continue
			}
			if r.Latency < cost[si][di] {
				cost[si][di] = r.Latency
				pred[si][di] = si
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if cost[i][k] == inf {
				continue
			}
			for j := 0; j < n; j++ {
				if cost[k][j] == inf {
					continue
				}
				if alt := cost[i][k] + cost[k][j]; alt < cost[i][j] {
					cost[i][j] = alt
					pred[i][j] = pred[k][j]
				}
			}
		}
	}

	for i, src := range hosts {
		for j, dst := range hosts {
			if i == j {
				continue
			}
			if _, exists := z.route(src, dst); exists {
				continue
			}
			if pred[i][j] == -1 {
				continue // unreachable
			}
			links := reconstructPath(z, hosts, pred, i, j)
			if links != nil {
				z.setRoute(src, dst, links)
			}
		}
	}
}

// reconstructPath walks the predecessor chain from src (index i) to dst
// (index j) and concatenates each hop's declared direct route, in order.
func reconstructPath(z *Zone, hosts []string, pred [][]int, i, j int) []*resource.Link {
	var hopIdx []int
	for cur := j; cur != i; {
		p := pred[i][cur]
		if p == -1 {
			return nil
		}
		hopIdx = append(hopIdx, cur)
		cur = p
	}
	hopIdx = append(hopIdx, i)
	// hopIdx is dst..src; reverse to src..dst.
	for l, r := 0, len(hopIdx)-1; l < r; l, r = l+1, r-1 {
		hopIdx[l], hopIdx[r] = hopIdx[r], hopIdx[l]
	}

	var links []*resource.Link
	for h := 0; h < len(hopIdx)-1; h++ {
		r, ok := z.route(hosts[hopIdx[h]], hosts[hopIdx[h+1]])
		if !ok {
			return nil
		}
		links = append(links, r.Links...)
	}
	return links
}
