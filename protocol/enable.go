package protocol

import "github.com/agilex/piper-can/frame"

// EnableCommand is the 0x471 enable/disable-all control frame: a single
// command byte plus a per-joint mask of which drivers it applies to.
type EnableCommand struct {
	Enable bool
	// JointMask has one bit per joint (bit i = joint i); 0x3F selects all
	// six joints.
	JointMask uint8
}

const allJointsMask = (1 << NumJoints) - 1

// AllJoints selects every joint driver.
func AllJoints() uint8 { return allJointsMask }

func (c EnableCommand) ToFrame() frame.Frame {
	var cmd byte
	if c.Enable {
		cmd = 1
	}
	return frame.New(IDEnableDisableAll, []byte{cmd, c.JointMask, 0, 0, 0, 0, 0, 0})
}

func DecodeEnableCommand(f frame.Frame) (EnableCommand, error) {
	if f.Len < 2 {
		return EnableCommand{}, wrongLength(f.ID, int(f.Len), 2)
	}
	d := f.DataSlice()
	if d[0] > 1 {
		return EnableCommand{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "enable flag"}
	}
	return EnableCommand{Enable: d[0] == 1, JointMask: d[1]}, nil
}
