package protocol

import "github.com/agilex/piper-can/frame"

// Configuration query/response frames (0x473/0x478/0x47B/0x47C) share one
// wire shape: a joint (or axis) selector byte, then a signed 16-bit
// minimum and maximum. The physical unit depends on the id and is applied
// by the caller from the tables below — the bit-exact byte layout here is
// this implementation's choice; §6.1 only prescribes the realtime
// control/feedback ids, not these slower query frames.
type LimitPair struct {
	// Selector is a joint index (0..NumJoints-1) for the two joint-scoped
	// ids, or an axis index (0=X,1=Y,2=Z,3=RX,4=RY,5=RZ) for the two
	// end-effector-scoped ids.
	Selector int
	Min, Max int16
}

func limitPairToFrame(id uint32, p LimitPair) frame.Frame {
	bmin := i16ToBytesBE(p.Min)
	bmax := i16ToBytesBE(p.Max)
	return frame.New(id, []byte{byte(p.Selector), bmin[0], bmin[1], bmax[0], bmax[1], 0, 0, 0})
}

func decodeLimitPair(f frame.Frame, wantID uint32) (LimitPair, error) {
	if f.ID != wantID {
		return LimitPair{}, &Error{ID: f.ID, Kind: KindUnknownID}
	}
	if f.Len != 8 {
		return LimitPair{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	return LimitPair{
		Selector: int(d[0]),
		Min:      bytesToI16BE(d[1:3]),
		Max:      bytesToI16BE(d[3:5]),
	}, nil
}

// JointPositionVelocityLimit is the 0x473 query/response: Min/Max in
// milli-degrees (position) or milli-radians/s (velocity) depending on
// which sub-query a future firmware revision distinguishes; this driver
// surfaces the raw signed range and leaves unit attribution to callers
// who know their firmware's convention.
type JointPositionVelocityLimit LimitPair

func (l JointPositionVelocityLimit) ToFrame() frame.Frame {
	return limitPairToFrame(IDConfigQuery473, LimitPair(l))
}
func DecodeJointPositionVelocityLimit(f frame.Frame) (JointPositionVelocityLimit, error) {
	p, err := decodeLimitPair(f, IDConfigQuery473)
	return JointPositionVelocityLimit(p), err
}

// JointAccelerationLimit is the 0x478 query/response.
type JointAccelerationLimit LimitPair

func (l JointAccelerationLimit) ToFrame() frame.Frame {
	return limitPairToFrame(IDConfigQuery478, LimitPair(l))
}
func DecodeJointAccelerationLimit(f frame.Frame) (JointAccelerationLimit, error) {
	p, err := decodeLimitPair(f, IDConfigQuery478)
	return JointAccelerationLimit(p), err
}

// EndEffectorVelocityAccelLimit is the 0x47B query/response.
type EndEffectorVelocityAccelLimit LimitPair

func (l EndEffectorVelocityAccelLimit) ToFrame() frame.Frame {
	return limitPairToFrame(IDConfigQuery47B, LimitPair(l))
}
func DecodeEndEffectorVelocityAccelLimit(f frame.Frame) (EndEffectorVelocityAccelLimit, error) {
	p, err := decodeLimitPair(f, IDConfigQuery47B)
	return EndEffectorVelocityAccelLimit(p), err
}

// EndEffectorPositionLimit is the 0x47C query/response.
type EndEffectorPositionLimit LimitPair

func (l EndEffectorPositionLimit) ToFrame() frame.Frame {
	return limitPairToFrame(IDConfigQuery47C, LimitPair(l))
}
func DecodeEndEffectorPositionLimit(f frame.Frame) (EndEffectorPositionLimit, error) {
	p, err := decodeLimitPair(f, IDConfigQuery47C)
	return EndEffectorPositionLimit(p), err
}
