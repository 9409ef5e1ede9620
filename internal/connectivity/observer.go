package connectivity

import "context"

// Observer exposes the current online/offline state plus transition events.
// It is injected rather than read from ambient process state so the sync
// coordinator can be driven deterministically in tests.
type Observer interface {
	// Online reports the last observed connectivity state.
	Online() bool
	// Changes emits the new state on every transition. Sends are
	// coalesced: a slow consumer sees at most one buffered transition.
	Changes() <-chan bool
}

// Starter is implemented by observers that need a background loop.
type Starter interface {
	Start(ctx context.Context)
}
