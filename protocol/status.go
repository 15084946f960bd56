package protocol

import "github.com/agilex/piper-can/frame"

// RobotStatus is the 0x2A1 status frame: byte-field with control_mode,
// robot_status, move_mode, teach_status, motion_status; two bytes of
// joint-bitmask fault codes (angle-limit, comm-error); one byte
// trajectory-point-index.
//
// The counter field some firmware revisions reserve in this id is unused
// in observed hardware; this decoder does not surface it (§9 open
// question (b)).
type RobotStatus struct {
	ControlMode  ControlMode
	ArmStatus    uint8
	MoveMode     MotionMode
	TeachStatus  uint8
	MotionStatus uint8
	// AngleLimitFaults has one bit per joint (bit i = joint i, 0-based);
	// set means that joint has exceeded its angle limit.
	AngleLimitFaults uint8
	// CommErrorFaults has one bit per joint; set means CAN communication
	// with that joint's driver has been lost.
	CommErrorFaults uint8
	TrajPointIndex  uint8
}

// JointAngleLimitFault reports whether joint i (0-based) is over its
// angle limit.
func (s RobotStatus) JointAngleLimitFault(i int) bool {
	return s.AngleLimitFaults&(1<<uint(i)) != 0
}

// JointCommErrorFault reports whether joint i (0-based) has lost CAN
// communication.
func (s RobotStatus) JointCommErrorFault(i int) bool {
	return s.CommErrorFaults&(1<<uint(i)) != 0
}

func (s RobotStatus) ToFrame() frame.Frame {
	data := []byte{
		byte(s.ControlMode), s.ArmStatus, byte(s.MoveMode), s.TeachStatus,
		s.MotionStatus, s.AngleLimitFaults, s.CommErrorFaults, s.TrajPointIndex,
	}
	return frame.New(IDRobotStatus, data)
}

func DecodeRobotStatus(f frame.Frame) (RobotStatus, error) {
	if f.Len != 8 {
		return RobotStatus{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	s := RobotStatus{
		ControlMode:      ControlMode(d[0]),
		ArmStatus:        d[1],
		MoveMode:         MotionMode(d[2]),
		TeachStatus:      d[3],
		MotionStatus:     d[4],
		AngleLimitFaults: d[5],
		CommErrorFaults:  d[6],
		TrajPointIndex:   d[7],
	}
	if !s.ControlMode.valid() {
		return RobotStatus{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "control_mode"}
	}
	if !s.MoveMode.valid() {
		return RobotStatus{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "move_mode"}
	}
	return s, nil
}
