package protocol

import (
	"testing"

	"github.com/agilex/piper-can/frame"
)

func TestDecodeLowSpeedFeedback(t *testing.T) {
	volt := u16ToBytesBE(24500) // 24.5 V
	data := []byte{45, 50, volt[0], volt[1], byte(LowSpeedFlagBrakeReleased | LowSpeedFlagCalibrated), 0, 0, 0}
	f := frame.New(IDLowSpeedBase+1, data)

	got, err := DecodeLowSpeedFeedback(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Joint != 1 {
		t.Errorf("joint = %d, want 1", got.Joint)
	}
	if got.MotorTempC != 45 || got.DriverTempC != 50 {
		t.Errorf("temps = %d,%d, want 45,50", got.MotorTempC, got.DriverTempC)
	}
	if got.BusVoltageV != 24.5 {
		t.Errorf("voltage = %v, want 24.5", got.BusVoltageV)
	}
	if !got.Flags.Has(LowSpeedFlagBrakeReleased) || !got.Flags.Has(LowSpeedFlagCalibrated) {
		t.Errorf("flags = %08b, missing expected bits", got.Flags)
	}
	if got.Flags.Has(LowSpeedFlagStalled) {
		t.Error("did not expect stalled flag")
	}
}
