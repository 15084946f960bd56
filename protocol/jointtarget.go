package protocol

import "github.com/agilex/piper-can/frame"

// JointTarget is the command payload for the three-frame joint-target
// triplet (0x155/0x156/0x157): six joint angles in radians. ToFrames emits
// them as an ordered, atomic realtime package — J1|J2, then J3|J4, then
// J5|J6 — matching the exact id and byte-order scenario in §8.2.
type JointTarget struct {
	// Angles holds J1..J6 in radians.
	Angles [NumJoints]float64
}

// ToFrames encodes t into the three ordered frames callers must submit as
// a single atomic realtime package.
func (t JointTarget) ToFrames() [3]frame.Frame {
	pack := func(id uint32, a, b float64) frame.Frame {
		ba := i32ToBytesBE(radiansToMilliDegrees(a))
		bb := i32ToBytesBE(radiansToMilliDegrees(b))
		data := make([]byte, 0, 8)
		data = append(data, ba[:]...)
		data = append(data, bb[:]...)
		return frame.New(id, data)
	}
	return [3]frame.Frame{
		pack(IDJointTarget12, t.Angles[0], t.Angles[1]),
		pack(IDJointTarget34, t.Angles[2], t.Angles[3]),
		pack(IDJointTarget56, t.Angles[4], t.Angles[5]),
	}
}

// DecodeJointTargetPair decodes one triplet frame's two packed angles.
// Used both to interpret master-slave target echoes and in tests.
func DecodeJointTargetPair(f frame.Frame) (a, b float64, err error) {
	if f.Len != 8 {
		return 0, 0, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return milliDegreesToRadians(bytesToI32BE(d[0:4])), milliDegreesToRadians(bytesToI32BE(d[4:8])), nil
}
