package protocol

import "github.com/agilex/piper-can/frame"

// EmergencyStopState is byte 0 of the 0x150 frame.
type EmergencyStopState uint8

const (
	EmergencyStopRelease EmergencyStopState = 0
	EmergencyStopAssert  EmergencyStopState = 1
	EmergencyStopRecover EmergencyStopState = 2
)

func (s EmergencyStopState) valid() bool { return s <= EmergencyStopRecover }

// EmergencyStop is the 0x150 control frame. It carries no other payload:
// firmware reacts to byte 0 alone.
type EmergencyStop struct {
	State EmergencyStopState
}

func (e EmergencyStop) ToFrame() frame.Frame {
	return frame.New(IDEmergencyStop, []byte{byte(e.State), 0, 0, 0, 0, 0, 0, 0})
}

func DecodeEmergencyStop(f frame.Frame) (EmergencyStop, error) {
	if f.Len == 0 {
		return EmergencyStop{}, wrongLength(f.ID, int(f.Len), 1)
	}
	s := EmergencyStopState(f.Data[0])
	if !s.valid() {
		return EmergencyStop{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "estop state"}
	}
	return EmergencyStop{State: s}, nil
}
