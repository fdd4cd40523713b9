package interaction

import (
	"fmt"
	"strings"

	"github.com/opendsim/kernel/pkg/config"
)

// ResolvedCall is a downstream edge with its target service resolved.
type ResolvedCall struct {
	ServiceID string
	Path      string
	Call      config.DownstreamCall
}

// ParseDownstreamTarget parses "serviceID:path" (or bare "serviceID",
// defaulting to path "/") into its parts.
func ParseDownstreamTarget(target string) (serviceID, path string, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", "", fmt.Errorf("downstream target cannot be empty")
	}
	if !strings.Contains(target, ":") {
		return target, "/", nil
	}
	parts := strings.SplitN(target, ":", 2)
	serviceID, path = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if serviceID == "" || path == "" {
		return "", "", fmt.Errorf("invalid downstream target format: %s (want serviceID:path)", target)
	}
	return serviceID, path, nil
}

// ResolveDownstream resolves every outgoing edge of an endpoint, dropping
// edges whose target service was removed from the graph after construction.
func (g *Graph) ResolveDownstream(serviceID, path string) []ResolvedCall {
	edges := g.Downstream(serviceID, path)
	if len(edges) == 0 {
		return nil
	}
	resolved := make([]ResolvedCall, 0, len(edges))
	for _, e := range edges {
		if _, ok := g.Service(e.ToServiceID); !ok {
			continue
		}
		resolved = append(resolved, ResolvedCall{ServiceID: e.ToServiceID, Path: e.ToPath, Call: e.Call})
	}
	return resolved
}
