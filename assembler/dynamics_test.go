package assembler

import (
	"testing"
	"time"

	"github.com/agilex/piper-can/frame"
)

func TestDynamicsGroupCommitsWhenAllSixArrive(t *testing.T) {
	t0 := time.Now()
	g := NewDynamicsGroup(0x251, 6*time.Millisecond, t0)

	var committed bool
	var mask uint8
	for i := 0; i < NumSlots; i++ {
		f := frame.New(0x251+uint32(i), []byte{byte(i)})
		_, m, c, ok := g.Observe(f, t0)
		if !ok {
			t.Fatalf("frame for joint %d should belong to the group", i)
		}
		if i < NumSlots-1 && c {
			t.Fatalf("group committed early after %d arrivals", i+1)
		}
		if i == NumSlots-1 {
			committed, mask = c, m
		}
	}
	if !committed {
		t.Fatal("expected commit once all six joints reported")
	}
	if mask != fullSlotMask {
		t.Fatalf("mask = %b, want %b", mask, fullSlotMask)
	}
}

func TestDynamicsGroupTickForceCommitsPartial(t *testing.T) {
	t0 := time.Now()
	g := NewDynamicsGroup(0x261, 6*time.Millisecond, t0)

	g.Observe(frame.New(0x261, nil), t0)
	g.Observe(frame.New(0x263, nil), t0)

	if _, _, committed := g.Tick(t0.Add(3 * time.Millisecond)); committed {
		t.Fatal("should not force-commit before the buffer timeout elapses")
	}
	frames, mask, committed := g.Tick(t0.Add(7 * time.Millisecond))
	if !committed {
		t.Fatal("expected a forced partial commit past the buffer timeout")
	}
	want := uint8(1<<0 | 1<<2)
	if mask != want {
		t.Fatalf("mask = %b, want %b", mask, want)
	}
	if frames[0].ID != 0x261 || frames[2].ID != 0x263 {
		t.Fatalf("unexpected frames: %+v", frames)
	}
}

func TestDynamicsGroupRejectsUnknownID(t *testing.T) {
	g := NewDynamicsGroup(0x251, 6*time.Millisecond, time.Now())
	if _, _, _, ok := g.Observe(frame.New(0x999, nil), time.Now()); ok {
		t.Fatal("expected ok=false for an id outside the joint range")
	}
}
