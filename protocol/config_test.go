package protocol

import "testing"

func TestLimitPairRoundTrip(t *testing.T) {
	l := JointPositionVelocityLimit{Selector: 2, Min: -3000, Max: 3000}
	got, err := DecodeJointPositionVelocityLimit(l.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != l {
		t.Fatalf("got %+v, want %+v", got, l)
	}
}

func TestLimitPairRejectsWrongID(t *testing.T) {
	l := JointAccelerationLimit{Selector: 0, Min: 0, Max: 1}
	if _, err := DecodeJointPositionVelocityLimit(l.ToFrame()); err == nil {
		t.Fatal("expected id mismatch error")
	}
}
