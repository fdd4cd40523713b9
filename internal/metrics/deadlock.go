package metrics

import (
	"fmt"
	"strings"

	"github.com/opendsim/kernel/internal/engine"
)

// DeadlockSummary is a control-plane-friendly rendering of an
// engine.DeadlockReport: the same information, shaped for JSON responses
// and CLI output instead of a single error string.
type DeadlockSummary struct {
	At          float64            `json:"at"`
	BlockedByID map[int64]string   `json:"blocked_by_id"`
	ByHost      map[string][]int64 `json:"by_host"`
}

// RenderDeadlock builds a DeadlockSummary from an engine.DeadlockReport.
// It returns the zero DeadlockSummary if report is nil, so callers can
// unconditionally render whatever Engine.Run returned without a type
// switch at every call site.
func RenderDeadlock(report *engine.DeadlockReport) DeadlockSummary {
	summary := DeadlockSummary{
		BlockedByID: make(map[int64]string),
		ByHost:      make(map[string][]int64),
	}
	if report == nil {
		return summary
	}
	summary.At = report.At
	for _, b := range report.Blocked {
		summary.BlockedByID[b.ActorID] = fmt.Sprintf("%s waiting on %s", b.Name, b.Waiting)
		summary.ByHost[b.HostName] = append(summary.ByHost[b.HostName], b.ActorID)
	}
	return summary
}

// String renders a summary the same way engine.DeadlockReport.Error does,
// but grouped by host, for a human reading CLI output rather than JSON.
func (s DeadlockSummary) String() string {
	if len(s.BlockedByID) == 0 {
		return "no deadlock"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "deadlock at t=%v across %d host(s):\n", s.At, len(s.ByHost))
	for host, ids := range s.ByHost {
		fmt.Fprintf(&b, "  %s:\n", host)
		for _, id := range ids {
			fmt.Fprintf(&b, "    actor %d: %s\n", id, s.BlockedByID[id])
		}
	}
	return b.String()
}
