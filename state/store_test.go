package state

import (
	"testing"
	"time"

	"github.com/agilex/piper-can/protocol"
)

func TestSlotLoadStore(t *testing.T) {
	s := New()
	if got := s.JointPosition.Load(); got != nil {
		t.Fatalf("expected nil before first Store, got %+v", got)
	}
	want := &JointPositionSnapshot{Angles: [protocol.NumJoints]float64{1, 2, 3, 4, 5, 6}, Mask: 0b111}
	s.JointPosition.Store(want)
	got := s.JointPosition.Load()
	if got != want {
		t.Fatalf("Load() = %p, want the exact pointer %p just Stored", got, want)
	}
}

func TestMotionSnapshotCombinesIndependentLoads(t *testing.T) {
	s := New()
	jp := &JointPositionSnapshot{Angles: [protocol.NumJoints]float64{1: 1}}
	ep := &EndPoseSnapshot{Pose: protocol.EndPose{X: 0.3}}
	s.JointPosition.Store(jp)
	s.EndPose.Store(ep)

	m := s.LoadMotionSnapshot()
	if m.JointPosition != jp || m.EndPose != ep {
		t.Fatalf("motion snapshot did not return the stored pointers")
	}
}

func TestColdDataFirmwareVersion(t *testing.T) {
	s := New()
	if v := s.Cold().FirmwareVersion(); v != "" {
		t.Fatalf("expected empty firmware version, got %q", v)
	}
	s.Cold().SetFirmwareVersion("V1.6.0")
	if v := s.Cold().FirmwareVersion(); v != "V1.6.0" {
		t.Fatalf("got %q, want V1.6.0", v)
	}
}

func TestColdDataLimits(t *testing.T) {
	s := New()
	if _, ok := s.Cold().Limit(protocol.IDConfigQuery473); ok {
		t.Fatal("expected no limit before any TrySetLimit")
	}
	p := protocol.LimitPair{Selector: 1, Min: -100, Max: 100}
	if !s.Cold().TrySetLimit(protocol.IDConfigQuery473, p) {
		t.Fatal("TrySetLimit should succeed on an uncontended lock")
	}
	got, ok := s.Cold().Limit(protocol.IDConfigQuery473)
	if !ok || got != p {
		t.Fatalf("Limit() = %+v,%v want %+v,true", got, ok, p)
	}
}

func TestFPSCounterSample(t *testing.T) {
	var f FPSCounter
	t0 := time.Now()
	f.Sample(t0) // baseline, returns 0

	for i := 0; i < 100; i++ {
		f.Record()
	}
	fps := f.Sample(t0.Add(100 * time.Millisecond))
	// 100 frames / 0.1s = 1000 fps => fps*1000 == 1_000_000
	if fps != 1_000_000 {
		t.Fatalf("fps*1000 = %d, want 1000000", fps)
	}
	if f.Count() != 100 {
		t.Fatalf("Count() = %d, want 100", f.Count())
	}
}

func TestConnectionMonitor(t *testing.T) {
	var c ConnectionMonitor
	now := time.Now()
	if c.CheckConnection(now, time.Second) {
		t.Fatal("expected false before any Touch")
	}
	c.Touch(now)
	if !c.CheckConnection(now.Add(10*time.Millisecond), 100*time.Millisecond) {
		t.Fatal("expected true shortly after Touch")
	}
	if c.CheckConnection(now.Add(200*time.Millisecond), 100*time.Millisecond) {
		t.Fatal("expected false once the window has elapsed")
	}
}
