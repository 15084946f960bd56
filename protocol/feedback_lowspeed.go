package protocol

import "github.com/agilex/piper-can/frame"

// LowSpeedStatusFlags is the 8-flag driver status byte carried in each
// low-speed feedback frame.
type LowSpeedStatusFlags uint8

const (
	LowSpeedFlagVoltageLow     LowSpeedStatusFlags = 1 << 0
	LowSpeedFlagMotorOverTemp  LowSpeedStatusFlags = 1 << 1
	LowSpeedFlagDriverOverTemp LowSpeedStatusFlags = 1 << 2
	LowSpeedFlagSensorFault    LowSpeedStatusFlags = 1 << 3
	LowSpeedFlagDriverFault    LowSpeedStatusFlags = 1 << 4
	LowSpeedFlagBrakeReleased  LowSpeedStatusFlags = 1 << 5
	LowSpeedFlagStalled        LowSpeedStatusFlags = 1 << 6
	LowSpeedFlagCalibrated     LowSpeedStatusFlags = 1 << 7
)

func (f LowSpeedStatusFlags) Has(bit LowSpeedStatusFlags) bool { return f&bit != 0 }

// LowSpeedFeedback is a per-joint driver feedback frame (0x261+i): motor
// temperature, bus voltage, and the driver status flag byte, sampled at
// the driver's slow update rate.
type LowSpeedFeedback struct {
	Joint          int
	MotorTempC     int8
	DriverTempC    int8
	BusVoltageV    float64
	Flags          LowSpeedStatusFlags
}

// DecodeLowSpeedFeedback decodes a 0x261..0x266 frame. Voltage travels as
// unsigned 16-bit millivolts.
func DecodeLowSpeedFeedback(f frame.Frame) (LowSpeedFeedback, error) {
	if f.Len != 8 {
		return LowSpeedFeedback{}, wrongLength(f.ID, int(f.Len), 8)
	}
	if f.ID < IDLowSpeedBase || f.ID >= IDLowSpeedBase+NumJoints {
		return LowSpeedFeedback{}, &Error{ID: f.ID, Kind: KindUnknownID}
	}
	d := f.DataSlice()
	return LowSpeedFeedback{
		Joint:       int(f.ID - IDLowSpeedBase),
		MotorTempC:  int8(d[0]),
		DriverTempC: int8(d[1]),
		BusVoltageV: float64(bytesToU16BE(d[2:4])) / 1000.0,
		Flags:       LowSpeedStatusFlags(d[4]),
	}, nil
}
