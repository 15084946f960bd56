package assembler

import (
	"testing"
	"time"

	"github.com/agilex/piper-can/frame"
)

func TestBitmaskGroupCompletesOnLastFrame(t *testing.T) {
	g := NewBitmaskGroup([GroupSize]uint32{0x2A5, 0x2A6, 0x2A7}, 10*time.Millisecond)
	t0 := time.Now()

	if _, _, completed, ok := g.Observe(frame.New(0x2A5, []byte{1}), t0); !ok || completed {
		t.Fatalf("first frame should not complete the group")
	}
	if _, _, completed, ok := g.Observe(frame.New(0x2A6, []byte{2}), t0); !ok || completed {
		t.Fatalf("second frame should not complete the group")
	}
	frames, mask, completed, ok := g.Observe(frame.New(0x2A7, []byte{3}), t0)
	if !ok || !completed {
		t.Fatalf("third frame should complete the group")
	}
	if mask != g.FullMask() {
		t.Fatalf("mask = %b, want %b", mask, g.FullMask())
	}
	if frames[0].ID != 0x2A5 || frames[1].ID != 0x2A6 || frames[2].ID != 0x2A7 {
		t.Fatalf("frames out of order: %+v", frames)
	}
}

func TestBitmaskGroupRejectsUnknownID(t *testing.T) {
	g := NewBitmaskGroup([GroupSize]uint32{0x2A5, 0x2A6, 0x2A7}, 10*time.Millisecond)
	if _, _, _, ok := g.Observe(frame.New(0x999, nil), time.Now()); ok {
		t.Fatal("expected ok=false for an id outside the group")
	}
}

func TestBitmaskGroupDiscardsStalePartial(t *testing.T) {
	g := NewBitmaskGroup([GroupSize]uint32{0x2A5, 0x2A6, 0x2A7}, 10*time.Millisecond)
	t0 := time.Now()
	g.Observe(frame.New(0x2A5, nil), t0)

	if g.CheckTimeout(t0.Add(5 * time.Millisecond)) {
		t.Fatal("should not time out before the configured window")
	}
	if !g.CheckTimeout(t0.Add(11 * time.Millisecond)) {
		t.Fatal("expected timeout to discard the stale partial group")
	}

	// The next complete triplet after a reset should complete cleanly.
	t1 := t0.Add(20 * time.Millisecond)
	g.Observe(frame.New(0x2A5, nil), t1)
	g.Observe(frame.New(0x2A6, nil), t1)
	_, _, completed, _ := g.Observe(frame.New(0x2A7, nil), t1)
	if !completed {
		t.Fatal("group should complete normally after a timeout reset")
	}
}
