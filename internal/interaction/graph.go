package interaction

import (
	"fmt"

	"github.com/opendsim/kernel/pkg/config"
)

// Graph is a directed acyclic graph of service endpoints, one node per
// "serviceID:path", edges labeled with the downstream call that crosses
// them.
type Graph struct {
	services  map[string]*config.Service
	endpoints map[string]*config.Endpoint
	edges     map[string][]Edge
}

// Edge is one downstream call from one endpoint to another.
type Edge struct {
	FromServiceID string
	FromPath      string
	ToServiceID   string
	ToPath        string
	Call          config.DownstreamCall
}

// NewGraph builds a Graph from a scenario's service list, validating that
// every downstream target resolves to a real endpoint and that the graph
// has no cycles (a cyclic service graph would make an actor program that
// never terminates its call chain).
func NewGraph(scenario *config.Scenario) (*Graph, error) {
	g := &Graph{
		services:  make(map[string]*config.Service),
		endpoints: make(map[string]*config.Endpoint),
		edges:     make(map[string][]Edge),
	}

	for i := range scenario.Services {
		svc := &scenario.Services[i]
		g.services[svc.ID] = svc
		for j := range svc.Endpoints {
			ep := &svc.Endpoints[j]
			g.endpoints[endpointKey(svc.ID, ep.Path)] = ep
		}
	}

	for i := range scenario.Services {
		svc := &scenario.Services[i]
		for j := range svc.Endpoints {
			ep := &svc.Endpoints[j]
			key := endpointKey(svc.ID, ep.Path)
			for _, ds := range ep.Downstream {
				edge, err := g.createEdge(svc.ID, ep.Path, ds)
				if err != nil {
					return nil, fmt.Errorf("interaction: edge from %s:%s: %w", svc.ID, ep.Path, err)
				}
				g.edges[key] = append(g.edges[key], edge)
			}
		}
	}

	if err := g.validateAcyclic(); err != nil {
		return nil, fmt.Errorf("interaction: service graph has a cycle: %w", err)
	}
	return g, nil
}

func (g *Graph) createEdge(fromService, fromPath string, call config.DownstreamCall) (Edge, error) {
	toService, toPath, err := ParseDownstreamTarget(call.To)
	if err != nil {
		return Edge{}, fmt.Errorf("invalid downstream target %q: %w", call.To, err)
	}
	if _, ok := g.services[toService]; !ok {
		return Edge{}, fmt.Errorf("downstream service %q does not exist", toService)
	}
	return Edge{FromServiceID: fromService, FromPath: fromPath, ToServiceID: toService, ToPath: toPath, Call: call}, nil
}

func (g *Graph) validateAcyclic() error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	for key := range g.endpoints {
		if !visited[key] {
			if err := g.dfs(key, visited, onStack); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) dfs(key string, visited, onStack map[string]bool) error {
	visited[key] = true
	onStack[key] = true
	for _, e := range g.edges[key] {
		toKey := endpointKey(e.ToServiceID, e.ToPath)
		if !visited[toKey] {
			if err := g.dfs(toKey, visited, onStack); err != nil {
				return err
			}
		} else if onStack[toKey] {
			return fmt.Errorf("cycle detected: %s -> %s", key, toKey)
		}
	}
	onStack[key] = false
	return nil
}

// Service looks up a service by id.
func (g *Graph) Service(id string) (*config.Service, bool) {
	svc, ok := g.services[id]
	return svc, ok
}

// Endpoint looks up an endpoint by service id and path.
func (g *Graph) Endpoint(serviceID, path string) (*config.Endpoint, bool) {
	ep, ok := g.endpoints[endpointKey(serviceID, path)]
	return ep, ok
}

// Downstream returns the outgoing edges from a given endpoint.
func (g *Graph) Downstream(serviceID, path string) []Edge {
	return g.edges[endpointKey(serviceID, path)]
}

func endpointKey(serviceID, path string) string { return serviceID + ":" + path }
