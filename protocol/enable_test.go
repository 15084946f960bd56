package protocol

import "testing"

func TestEnableCommandRoundTrip(t *testing.T) {
	c := EnableCommand{Enable: true, JointMask: AllJoints()}
	got, err := DecodeEnableCommand(c.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != c {
		t.Fatalf("got %+v, want %+v", got, c)
	}
	if got.JointMask != 0b111111 {
		t.Fatalf("AllJoints() = %#b, want 0b111111", got.JointMask)
	}
}
