package state

import (
	"sync/atomic"
	"time"
)

// FPSCounter is a per-subsystem frame-rate counter: Record bumps a
// lock-free counter from whichever thread produces frames; the daemon
// calls Sample each time it answers GetStatus to turn the delta since
// the last sample into a rate. The daemon reports rates as
// fps×1000 to avoid shipping floats over the wire.
type FPSCounter struct {
	count       atomic.Uint64
	lastCount   uint64
	lastSampled time.Time
	fpsX1000    atomic.Uint64
}

// Record counts one more frame.
func (f *FPSCounter) Record() { f.count.Add(1) }

// Sample computes the rate since the previous Sample call and publishes
// it, returning the newly computed fps×1000 value. The first call only
// records a baseline and returns 0.
func (f *FPSCounter) Sample(now time.Time) uint64 {
	cur := f.count.Load()
	if f.lastSampled.IsZero() {
		f.lastSampled = now
		f.lastCount = cur
		return 0
	}
	elapsed := now.Sub(f.lastSampled)
	if elapsed <= 0 {
		return f.fpsX1000.Load()
	}
	delta := cur - f.lastCount
	fpsX1000 := uint64(float64(delta) / elapsed.Seconds() * 1000)
	f.fpsX1000.Store(fpsX1000)
	f.lastSampled = now
	f.lastCount = cur
	return fpsX1000
}

// FPSX1000 returns the most recently sampled rate.
func (f *FPSCounter) FPSX1000() uint64 { return f.fpsX1000.Load() }

// Count returns the running total, for diagnostics.
func (f *FPSCounter) Count() uint64 { return f.count.Load() }
