package state

import "github.com/agilex/piper-can/protocol"

// JointPositionSnapshot is the committed 0x2A5/0x2A6/0x2A7 triplet.
type JointPositionSnapshot struct {
	Angles      [protocol.NumJoints]float64
	Mask        uint8
	TimestampUs uint64
}

// EndPoseSnapshot is the committed 0x2A2/0x2A3/0x2A4 triplet.
type EndPoseSnapshot struct {
	Pose        protocol.EndPose
	Mask        uint8
	TimestampUs uint64
}

// JointDynamicsSnapshot is the committed per-joint high-speed feedback
// group (velocity + current, 0x251..0x256).
type JointDynamicsSnapshot struct {
	Velocities  [protocol.NumJoints]float64
	Currents    [protocol.NumJoints]float64
	Mask        uint8
	TimestampUs uint64
}

// JointDriverLowSpeedSnapshot is the committed per-joint low-speed
// feedback group (temps/voltages/status flags, 0x261..0x266).
type JointDriverLowSpeedSnapshot struct {
	Entries     [protocol.NumJoints]protocol.LowSpeedFeedback
	Mask        uint8
	TimestampUs uint64
}

// MasterSlaveEchoSnapshot is the committed joint-target triplet as echoed
// back by the arm (0x155/0x156/0x157 in feedback direction), used to
// confirm the controller's last commanded targets took effect.
type MasterSlaveEchoSnapshot struct {
	Angles      [protocol.NumJoints]float64
	Mask        uint8
	TimestampUs uint64
}
