package protocol

import "github.com/agilex/piper-can/frame"

// EndPoseTarget is the command payload for the three-frame end-pose target
// triplet (0x152/0x153/0x154): X,Y,Z in meters, RX,RY,RZ in radians.
type EndPoseTarget struct {
	X, Y, Z    float64
	RX, RY, RZ float64
}

// ToFrames encodes t as the three ordered frames of its atomic realtime
// package: X|Y, Z|RX, RY|RZ.
func (t EndPoseTarget) ToFrames() [3]frame.Frame {
	packXY := func(id uint32, x, y float64) frame.Frame {
		bx := i32ToBytesBE(metersToMicrometers(x))
		by := i32ToBytesBE(metersToMicrometers(y))
		return frame.New(id, append(append([]byte{}, bx[:]...), by[:]...))
	}
	packZRX := func(id uint32, z, rx float64) frame.Frame {
		bz := i32ToBytesBE(metersToMicrometers(z))
		brx := i32ToBytesBE(radiansToMilliDegrees(rx))
		return frame.New(id, append(append([]byte{}, bz[:]...), brx[:]...))
	}
	packRYRZ := func(id uint32, ry, rz float64) frame.Frame {
		bry := i32ToBytesBE(radiansToMilliDegrees(ry))
		brz := i32ToBytesBE(radiansToMilliDegrees(rz))
		return frame.New(id, append(append([]byte{}, bry[:]...), brz[:]...))
	}
	return [3]frame.Frame{
		packXY(IDEndPoseTarget1, t.X, t.Y),
		packZRX(IDEndPoseTarget2, t.Z, t.RX),
		packRYRZ(IDEndPoseTarget3, t.RY, t.RZ),
	}
}

// EndPose is the three-frame feedback group (0x2A2/0x2A3/0x2A4) decoded
// into physical units, per the data model's EndPose snapshot.
//
// RY/RZ are decoded as-is, with no sign adjustment; the sign convention
// is firmware-revision-dependent per §9 open question (c) and MUST be
// validated against a known-good device before release.
type EndPose struct {
	X, Y, Z    float64
	RX, RY, RZ float64
}

// DecodeEndPoseFrame1 decodes the X|Y half of the feedback triplet.
func DecodeEndPoseFrame1(f frame.Frame) (x, y float64, err error) {
	if f.Len != 8 {
		return 0, 0, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return micrometersToMeters(bytesToI32BE(d[0:4])), micrometersToMeters(bytesToI32BE(d[4:8])), nil
}

// DecodeEndPoseFrame2 decodes the Z|RX half.
func DecodeEndPoseFrame2(f frame.Frame) (z, rx float64, err error) {
	if f.Len != 8 {
		return 0, 0, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return micrometersToMeters(bytesToI32BE(d[0:4])), milliDegreesToRadians(bytesToI32BE(d[4:8])), nil
}

// DecodeEndPoseFrame3 decodes the RY|RZ half.
func DecodeEndPoseFrame3(f frame.Frame) (ry, rz float64, err error) {
	if f.Len != 8 {
		return 0, 0, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return milliDegreesToRadians(bytesToI32BE(d[0:4])), milliDegreesToRadians(bytesToI32BE(d[4:8])), nil
}
