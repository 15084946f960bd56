package engine

import (
	"sync"
	"sync/atomic"

	"github.com/agilex/piper-can/frame"
)

// MaxRealtimePackageSize is the documented upper bound on an atomic
// realtime package: the largest group of frames the caller needs sent as
// an indivisible unit (the three-frame joint/end-pose target triplets use
// 3 of the 10 available slots). Neither Mailbox.Put nor
// Engine.SendRealtime checks a package's length against it.
const MaxRealtimePackageSize = 10

// RealtimePackage is a set of frames that must be sent, in order, as a
// unit. CAN-bus semantics offer no rollback: if a send mid-package fails,
// the remaining frames are abandoned and the TX loop counts the partial
// package in the engine's txPartialPackages counter.
type RealtimePackage []frame.Frame

// Mailbox is the single-slot, last-write-wins realtime command queue
//. Put overwrites any unconsumed previous package; Take
// atomically empties the slot.
type Mailbox struct {
	mu   sync.Mutex
	pkg  RealtimePackage
	full bool

	overwrites atomic.Uint64
	puts       atomic.Uint64
}

// Put publishes pkg, overwriting whatever the TX loop hasn't yet
// consumed. It reports whether an unconsumed package was overwritten, so
// callers can track the overwrite rate (§4.9's saturation monitor).
func (m *Mailbox) Put(pkg RealtimePackage) (overwrote bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts.Add(1)
	if m.full {
		m.overwrites.Add(1)
		overwrote = true
	}
	m.pkg = pkg
	m.full = true
	return overwrote
}

// Take empties the slot and returns its contents, if any.
func (m *Mailbox) Take() (RealtimePackage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return nil, false
	}
	pkg := m.pkg
	m.pkg = nil
	m.full = false
	return pkg, true
}

// OverwriteRate returns the fraction of puts that overwrote an unconsumed
// package since the last call, and resets both counters — matching
// §4.9's "over 1000 sends" window by letting the caller decide when
// to sample (e.g. every 1000 Puts).
func (m *Mailbox) OverwriteRate() float64 {
	puts := m.puts.Swap(0)
	overwrites := m.overwrites.Swap(0)
	if puts == 0 {
		return 0
	}
	return float64(overwrites) / float64(puts)
}
