package protocol

import "github.com/agilex/piper-can/frame"

// HighSpeedFeedback is a per-joint driver feedback frame (0x251+i):
// velocity and current, sampled at the driver's fast update rate.
type HighSpeedFeedback struct {
	Joint         int
	VelocityRadPS float64
	CurrentAmps   float64
}

// DecodeHighSpeedFeedback decodes a 0x251..0x256 frame. Velocity travels
// as signed 16-bit milliradians/s, current as signed 16-bit milliamps.
func DecodeHighSpeedFeedback(f frame.Frame) (HighSpeedFeedback, error) {
	if f.Len != 8 {
		return HighSpeedFeedback{}, wrongLength(f.ID, int(f.Len), 8)
	}
	if f.ID < IDHighSpeedBase || f.ID >= IDHighSpeedBase+NumJoints {
		return HighSpeedFeedback{}, &Error{ID: f.ID, Kind: KindUnknownID}
	}
	d := f.DataSlice()
	return HighSpeedFeedback{
		Joint:         int(f.ID - IDHighSpeedBase),
		VelocityRadPS: float64(bytesToI16BE(d[0:2])) / 1000.0,
		CurrentAmps:   float64(bytesToI16BE(d[2:4])) / 1000.0,
	}, nil
}
