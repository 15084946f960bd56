package protocol

import "github.com/agilex/piper-can/frame"

// ControlMode is byte 0 of the mode-set frame.
type ControlMode uint8

const (
	ControlModeStandby ControlMode = 0
	ControlModeCAN     ControlMode = 1
	ControlModeTeach    ControlMode = 2
	ControlModeEthernet ControlMode = 3
	ControlModeWiFi     ControlMode = 4
	ControlModeRemote   ControlMode = 5
	ControlModeLink     ControlMode = 6
	ControlModeOffline  ControlMode = 7
)

func (m ControlMode) valid() bool { return m <= ControlModeOffline }

// MotionMode is byte 1 of the mode-set frame: MoveJ/P/L/C/M/Cpv.
type MotionMode uint8

const (
	MotionModeMoveP   MotionMode = 0
	MotionModeMoveJ   MotionMode = 1
	MotionModeMoveL   MotionMode = 2
	MotionModeMoveC   MotionMode = 3
	MotionModeMoveM   MotionMode = 4
	MotionModeMoveCPV MotionMode = 5
	MotionModeMIT     MotionMode = 6
)

func (m MotionMode) valid() bool { return m <= MotionModeMIT }

// InstallPosition is byte 5 of the mode-set frame: how the arm base is
// mounted, used by firmware to correct gravity compensation.
type InstallPosition uint8

const (
	InstallPositionUpright  InstallPosition = 0
	InstallPositionSideways InstallPosition = 1
	InstallPositionInverted InstallPosition = 2
)

func (p InstallPosition) valid() bool { return p <= InstallPositionInverted }

// ModeSet is the 0x151 control frame: `[ctrl_mode, move_mode, speed_pct,
// mit_mode, traj_stay_time, install_pos, 0, 0]`. The same
// layout round-trips as an echo from the arm.
type ModeSet struct {
	ControlMode     ControlMode
	MotionMode      MotionMode
	SpeedPercent    uint8 // 0..=100
	MITSubMode      uint8
	TrajStayTimeSec uint8
	InstallPosition InstallPosition
}

func (m ModeSet) ToFrame() frame.Frame {
	data := []byte{
		byte(m.ControlMode), byte(m.MotionMode), m.SpeedPercent, m.MITSubMode,
		m.TrajStayTimeSec, byte(m.InstallPosition), 0, 0,
	}
	return frame.New(IDModeSet, data)
}

func DecodeModeSet(f frame.Frame) (ModeSet, error) {
	if f.Len != 8 {
		return ModeSet{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	m := ModeSet{
		ControlMode:     ControlMode(d[0]),
		MotionMode:      MotionMode(d[1]),
		SpeedPercent:    d[2],
		MITSubMode:      d[3],
		TrajStayTimeSec: d[4],
		InstallPosition: InstallPosition(d[5]),
	}
	if !m.ControlMode.valid() {
		return ModeSet{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "control_mode"}
	}
	if !m.MotionMode.valid() {
		return ModeSet{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "move_mode"}
	}
	if m.SpeedPercent > 100 {
		return ModeSet{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "speed_pct"}
	}
	if !m.InstallPosition.valid() {
		return ModeSet{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "install_pos"}
	}
	return m, nil
}
