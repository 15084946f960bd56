package protocol

import (
	"testing"

	"github.com/agilex/piper-can/frame"
)

func TestDecodeHighSpeedFeedback(t *testing.T) {
	vel := i16ToBytesBE(1500)  // 1.5 rad/s
	cur := i16ToBytesBE(-2500) // -2.5 A
	data := append(append([]byte{}, vel[:]...), cur[:]...)
	data = append(data, 0, 0, 0, 0)
	f := frame.New(IDHighSpeedBase+3, data)

	got, err := DecodeHighSpeedFeedback(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Joint != 3 {
		t.Errorf("joint = %d, want 3", got.Joint)
	}
	if got.VelocityRadPS != 1.5 {
		t.Errorf("velocity = %v, want 1.5", got.VelocityRadPS)
	}
	if got.CurrentAmps != -2.5 {
		t.Errorf("current = %v, want -2.5", got.CurrentAmps)
	}
}

func TestDecodeHighSpeedFeedbackRejectsOutOfRangeID(t *testing.T) {
	f := frame.New(IDHighSpeedBase+NumJoints, make([]byte, 8))
	if _, err := DecodeHighSpeedFeedback(f); err == nil {
		t.Fatal("expected error for out-of-range id")
	}
}
