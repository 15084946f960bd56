package protocol

import "github.com/agilex/piper-can/frame"

// Gripper wire units: travel is a signed 32-bit integer in micrometers
// (matching the end-effector translation convention, §6.1); torque
// is a signed 16-bit integer in milli-newton-meters.

// GripperTarget is the 0x159 control frame: commanded travel and
// clamping torque, plus enable/clear-error control bits.
type GripperTarget struct {
	TravelMeters       float64
	TorqueNewtonMeters float64
	Enable             bool
	ClearError         bool
}

const (
	gripperCtrlEnable     = 1 << 0
	gripperCtrlClearError = 1 << 1
)

func (g GripperTarget) ToFrame() frame.Frame {
	travel := i32ToBytesBE(metersToMicrometers(g.TravelMeters))
	torque := i16ToBytesBE(int16(g.TorqueNewtonMeters * 1000))
	var ctrl byte
	if g.Enable {
		ctrl |= gripperCtrlEnable
	}
	if g.ClearError {
		ctrl |= gripperCtrlClearError
	}
	data := make([]byte, 0, 8)
	data = append(data, travel[:]...)
	data = append(data, torque[:]...)
	data = append(data, ctrl, 0)
	return frame.New(IDGripperTarget, data)
}

func DecodeGripperTarget(f frame.Frame) (GripperTarget, error) {
	if f.Len != 8 {
		return GripperTarget{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return GripperTarget{
		TravelMeters:       micrometersToMeters(bytesToI32BE(d[0:4])),
		TorqueNewtonMeters: float64(bytesToI16BE(d[4:6])) / 1000.0,
		Enable:             d[6]&gripperCtrlEnable != 0,
		ClearError:         d[6]&gripperCtrlClearError != 0,
	}, nil
}

// GripperFeedback is the 0x2A8 feedback frame: measured travel and
// torque, plus enabled/fault status bits.
type GripperFeedback struct {
	TravelMeters       float64
	TorqueNewtonMeters float64
	Enabled            bool
	Fault              bool
}

const (
	gripperStatusEnabled = 1 << 0
	gripperStatusFault   = 1 << 1
)

func DecodeGripperFeedback(f frame.Frame) (GripperFeedback, error) {
	if f.Len != 8 {
		return GripperFeedback{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return GripperFeedback{
		TravelMeters:       micrometersToMeters(bytesToI32BE(d[0:4])),
		TorqueNewtonMeters: float64(bytesToI16BE(d[4:6])) / 1000.0,
		Enabled:            d[6]&gripperStatusEnabled != 0,
		Fault:              d[6]&gripperStatusFault != 0,
	}, nil
}

// NormalizedTravel expresses travel as a 0..1 fraction of the gripper's
// documented 100mm full-open reference scale.
func (g GripperFeedback) NormalizedTravel() float64 {
	return g.TravelMeters * 1000.0 / GripperPositionScale
}

// NormalizedTorque expresses torque as a 0..1 fraction of the gripper's
// documented 10 N*m reference scale.
func (g GripperFeedback) NormalizedTorque() float64 {
	return g.TorqueNewtonMeters / GripperForceScale
}
