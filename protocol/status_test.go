package protocol

import "testing"

func TestRobotStatusRoundTrip(t *testing.T) {
	s := RobotStatus{
		ControlMode:      ControlModeCAN,
		ArmStatus:        2,
		MoveMode:         MotionModeMoveL,
		TeachStatus:      0,
		MotionStatus:     1,
		AngleLimitFaults: 0b000101,
		CommErrorFaults:  0b010000,
		TrajPointIndex:   7,
	}
	got, err := DecodeRobotStatus(s.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != s {
		t.Fatalf("got %+v, want %+v", got, s)
	}
	if !got.JointAngleLimitFault(0) || !got.JointAngleLimitFault(2) {
		t.Fatal("expected joints 0 and 2 to report angle-limit faults")
	}
	if got.JointAngleLimitFault(1) {
		t.Fatal("joint 1 should not report a fault")
	}
	if !got.JointCommErrorFault(4) {
		t.Fatal("expected joint 4 to report a comm-error fault")
	}
}

func TestRobotStatusRejectsInvalidControlMode(t *testing.T) {
	f := (RobotStatus{ControlMode: ControlModeCAN}).ToFrame()
	f.Data[0] = 200
	if _, err := DecodeRobotStatus(f); err == nil {
		t.Fatal("expected error for invalid control_mode")
	}
}
