package assembler

import (
	"time"

	"github.com/agilex/piper-can/frame"
)

// BitmaskGroup assembles a fixed triplet of ids (joint-position,
// end-pose, or an echoed target triplet) into one snapshot. It publishes
// as soon as the group's last id arrives, and discards a partial group
// once it ages past the configured timeout, so frames from two different
// control cycles are never mixed into one snapshot.
//
// Not safe for concurrent use; the RX loop owns one instance per group
// and calls it from a single goroutine.
type BitmaskGroup struct {
	ids     []uint32
	slotOf  map[uint32]int
	pending [GroupSize]frame.Frame
	mask    uint8
	started time.Time
	timeout time.Duration
}

// NewBitmaskGroup builds a group over exactly GroupSize ids, in the order
// a complete snapshot should expose them.
func NewBitmaskGroup(ids [GroupSize]uint32, timeout time.Duration) *BitmaskGroup {
	slotOf := make(map[uint32]int, GroupSize)
	for i, id := range ids {
		slotOf[id] = i
	}
	return &BitmaskGroup{ids: ids[:], slotOf: slotOf, timeout: timeout}
}

// FullMask is the mask value once every id in the group has arrived.
func (g *BitmaskGroup) FullMask() uint8 { return (1 << GroupSize) - 1 }

// Observe absorbs one frame. now is the caller's clock, injected so tests
// don't depend on wall time. It returns (frames, mask, true) the instant
// the group completes; the caller publishes a snapshot carrying mask so
// downstream consumers can tell a complete group from one that had to be
// force-committed by a timeout elsewhere in the pipeline.
//
// A frame whose id isn't in this group is a caller error; Observe reports
// it via the ok return rather than panicking, since a misrouted dispatch
// should never crash the RX loop.
func (g *BitmaskGroup) Observe(f frame.Frame, now time.Time) (frames [GroupSize]frame.Frame, mask uint8, completed bool, ok bool) {
	slot, present := g.slotOf[f.ID]
	if !present {
		return frames, 0, false, false
	}
	if g.mask == 0 {
		g.started = now
	}
	g.pending[slot] = f
	g.mask |= 1 << uint(slot)
	if g.mask == g.FullMask() {
		frames = g.pending
		mask = g.mask
		g.reset()
		return frames, mask, true, true
	}
	return frames, 0, false, true
}

// CheckTimeout discards a partial group older than the configured
// timeout. It returns true if it discarded anything, so the caller can
// bump a staleness counter.
func (g *BitmaskGroup) CheckTimeout(now time.Time) bool {
	if g.mask == 0 {
		return false
	}
	if now.Sub(g.started) <= g.timeout {
		return false
	}
	g.reset()
	return true
}

func (g *BitmaskGroup) reset() {
	g.pending = [GroupSize]frame.Frame{}
	g.mask = 0
}
