package protocol

import "github.com/agilex/piper-can/frame"

// CircularViaPoint is the 0x158 control frame: the via-point index for an
// in-progress circular (MoveC) motion.
type CircularViaPoint struct {
	Index uint8
}

func (c CircularViaPoint) ToFrame() frame.Frame {
	return frame.New(IDCircularViaIdx, []byte{c.Index, 0, 0, 0, 0, 0, 0, 0})
}

func DecodeCircularViaPoint(f frame.Frame) (CircularViaPoint, error) {
	if f.Len == 0 {
		return CircularViaPoint{}, wrongLength(f.ID, int(f.Len), 1)
	}
	return CircularViaPoint{Index: f.Data[0]}, nil
}
