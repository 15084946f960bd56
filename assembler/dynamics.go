package assembler

import (
	"time"

	"github.com/agilex/piper-can/frame"
)

// NumSlots is the per-joint dynamics group's width: one slot per joint.
const NumSlots = 6

// DynamicsGroup assembles the six per-joint feedback frames (high-speed
// velocity+current, or low-speed temps/voltages) into one snapshot using
// the all-arrived-or-age-timeout rule: commit as soon as all
// six joints have reported since the last commit, or when the time since
// the last commit exceeds the buffer timeout, whichever comes first. A
// timed-out commit carries a partial mask; readers interpret it to know
// which joints are fresh.
//
// Not safe for concurrent use; see BitmaskGroup's note.
type DynamicsGroup struct {
	slotOf     map[uint32]int
	slots      [NumSlots]frame.Frame
	mask       uint8
	lastCommit time.Time
	timeout    time.Duration
}

// NewDynamicsGroup builds a group over the NumSlots ids produced by
// baseID+slot for slot in 0..NumSlots (the per-joint high-speed or
// low-speed feedback ranges).
func NewDynamicsGroup(baseID uint32, timeout time.Duration, now time.Time) *DynamicsGroup {
	slotOf := make(map[uint32]int, NumSlots)
	for i := 0; i < NumSlots; i++ {
		slotOf[baseID+uint32(i)] = i
	}
	return &DynamicsGroup{
		slotOf:     slotOf,
		timeout:    timeout,
		lastCommit: now,
	}
}

const fullSlotMask = (1 << NumSlots) - 1

// Observe absorbs one per-joint frame. It returns (frames, mask, true)
// when the group commits because every joint has reported since the last
// commit. ok is false if f's id does not belong to this group.
func (g *DynamicsGroup) Observe(f frame.Frame, now time.Time) (frames [NumSlots]frame.Frame, mask uint8, committed bool, ok bool) {
	slot, present := g.slotOf[f.ID]
	if !present {
		return frames, 0, false, false
	}
	g.slots[slot] = f
	g.mask |= 1 << uint(slot)
	if g.mask == fullSlotMask {
		frames, mask = g.commit(now)
		return frames, mask, true, true
	}
	return frames, 0, false, true
}

// Tick checks the age-timeout independent of any arrival; call it on
// every RX-loop receive timeout. It force-commits a
// non-empty partial buffer once it has aged past the timeout.
func (g *DynamicsGroup) Tick(now time.Time) (frames [NumSlots]frame.Frame, mask uint8, committed bool) {
	if g.mask == 0 {
		return frames, 0, false
	}
	if now.Sub(g.lastCommit) < g.timeout {
		return frames, 0, false
	}
	frames, mask = g.commit(now)
	return frames, mask, true
}

func (g *DynamicsGroup) commit(now time.Time) (frames [NumSlots]frame.Frame, mask uint8) {
	frames = g.slots
	mask = g.mask
	g.slots = [NumSlots]frame.Frame{}
	g.mask = 0
	g.lastCommit = now
	return frames, mask
}
