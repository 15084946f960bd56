package protocol

import "testing"

func TestGripperTargetRoundTrip(t *testing.T) {
	g := GripperTarget{TravelMeters: 0.035, TorqueNewtonMeters: 4.2, Enable: true, ClearError: false}
	got, err := DecodeGripperTarget(g.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := got.TravelMeters - g.TravelMeters; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("travel = %v, want %v", got.TravelMeters, g.TravelMeters)
	}
	if diff := got.TorqueNewtonMeters - g.TorqueNewtonMeters; diff > 1e-3 || diff < -1e-3 {
		t.Errorf("torque = %v, want %v", got.TorqueNewtonMeters, g.TorqueNewtonMeters)
	}
	if got.Enable != g.Enable || got.ClearError != g.ClearError {
		t.Errorf("control bits = %+v, want %+v", got, g)
	}
}

func TestGripperFeedbackNormalization(t *testing.T) {
	fb := GripperFeedback{TravelMeters: 0.05, TorqueNewtonMeters: 5.0, Enabled: true}
	if n := fb.NormalizedTravel(); n != 0.5 {
		t.Errorf("NormalizedTravel() = %v, want 0.5", n)
	}
	if n := fb.NormalizedTorque(); n != 0.5 {
		t.Errorf("NormalizedTorque() = %v, want 0.5", n)
	}
}
