package interaction

// CallMode is a downstream edge's transport semantics.
type CallMode string

const (
	// CallModeSync blocks the caller until the callee replies.
	CallModeSync CallMode = "sync"
	// CallModeAsync fires the call and continues without waiting.
	CallModeAsync CallMode = "async"
)

// modeOf normalizes a DownstreamCall's Mode field, defaulting to sync as
// the config schema documents.
func modeOf(raw string) CallMode {
	if CallMode(raw) == CallModeAsync {
		return CallModeAsync
	}
	return CallModeSync
}
