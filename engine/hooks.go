package engine

import (
	"sync"

	"github.com/agilex/piper-can/frame"
)

// Hook observes a frame as it crosses the RX or TX path. Hooks must
// complete in well under a microsecond — a non-blocking bounded-channel
// send or an atomic counter bump, never logging or allocation
// (§4.8 step 3).
type Hook func(frame.Frame)

// hookRegistry dispatches to registered hooks without ever blocking the
// RX/TX loop on a concurrent Register call: Invoke uses TryRLock, and
// simply skips this cycle's hooks if registration is in progress.
type hookRegistry struct {
	mu    sync.RWMutex
	hooks []Hook
}

func (r *hookRegistry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

func (r *hookRegistry) Invoke(f frame.Frame) {
	if !r.mu.TryRLock() {
		return
	}
	defer r.mu.RUnlock()
	for _, h := range r.hooks {
		h(f)
	}
}
