package protocol

import "testing"

func TestModeSetRoundTrip(t *testing.T) {
	m := ModeSet{
		ControlMode:     ControlModeCAN,
		MotionMode:      MotionModeMoveJ,
		SpeedPercent:    80,
		MITSubMode:      1,
		TrajStayTimeSec: 3,
		InstallPosition: InstallPositionInverted,
	}
	f := m.ToFrame()
	if f.ID != IDModeSet {
		t.Fatalf("id = %#x, want %#x", f.ID, IDModeSet)
	}
	got, err := DecodeModeSet(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != m {
		t.Fatalf("round trip = %+v, want %+v", got, m)
	}
}

func TestModeSetRejectsInvalidSpeed(t *testing.T) {
	f := (ModeSet{ControlMode: ControlModeCAN, SpeedPercent: 101}).ToFrame()
	if _, err := DecodeModeSet(f); err == nil {
		t.Fatal("expected error for speed_pct > 100")
	}
}

func TestEmergencyStopRoundTrip(t *testing.T) {
	e := EmergencyStop{State: EmergencyStopAssert}
	got, err := DecodeEmergencyStop(e.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != e {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}
