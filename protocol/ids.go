// Package protocol encodes and decodes every CAN id the arm speaks: joint
// feedback triplets, end-pose triplets, driver feedback at two rates, the
// status word, gripper feedback/control, enable/disable, mode-set, MIT
// per-joint control with its XOR checksum, joint/gripper targets,
// emergency stop, and configuration queries.
package protocol

// Control-frame ids (host -> arm), 0x150-0x15F.
const (
	IDEmergencyStop  uint32 = 0x150
	IDModeSet        uint32 = 0x151
	IDEndPoseTarget1 uint32 = 0x152 // X|Y
	IDEndPoseTarget2 uint32 = 0x153 // Z|RX
	IDEndPoseTarget3 uint32 = 0x154 // RY|RZ
	IDJointTarget12  uint32 = 0x155
	IDJointTarget34  uint32 = 0x156
	IDJointTarget56  uint32 = 0x157
	IDCircularViaIdx uint32 = 0x158
	IDGripperTarget  uint32 = 0x159
	IDMITControlBase uint32 = 0x15A // 0x15A..0x15F, one per joint (6 joints)
)

// Feedback-frame ids (arm -> host), 0x2A1-0x2A8.
const (
	IDRobotStatus    uint32 = 0x2A1
	IDEndPoseFB1     uint32 = 0x2A2
	IDEndPoseFB2     uint32 = 0x2A3
	IDEndPoseFB3     uint32 = 0x2A4
	IDJointPosFB1    uint32 = 0x2A5
	IDJointPosFB2    uint32 = 0x2A6
	IDJointPosFB3    uint32 = 0x2A7
	IDGripperFB      uint32 = 0x2A8
)

// High-speed per-joint driver feedback (velocity, current), one id per
// joint, 0x251-0x256.
const IDHighSpeedBase uint32 = 0x251

// Low-speed per-joint driver feedback (temps, voltages, status byte), one
// id per joint, 0x261-0x266.
const IDLowSpeedBase uint32 = 0x261

// Enable/disable and configuration query ids.
const (
	IDEnableDisableAll uint32 = 0x471
	IDConfigQuery473   uint32 = 0x473 // joint position/velocity limits
	IDConfigQuery478   uint32 = 0x478 // joint acceleration limits
	IDConfigQuery47B   uint32 = 0x47B // end-effector velocity/accel limits
	IDConfigQuery47C   uint32 = 0x47C // end-effector position limits
	IDFirmwareVersion  uint32 = 0x4AF
)

// NumJoints is the arm's degree-of-freedom count; every per-joint id range
// (MIT control, high-speed, low-speed) spans exactly this many ids.
const NumJoints = 6

// JointHighSpeedID returns the high-speed feedback id for joint i (0-based).
func JointHighSpeedID(i int) uint32 { return IDHighSpeedBase + uint32(i) }

// JointLowSpeedID returns the low-speed feedback id for joint i (0-based).
func JointLowSpeedID(i int) uint32 { return IDLowSpeedBase + uint32(i) }

// JointMITID returns the MIT control id for joint i (0-based).
func JointMITID(i int) uint32 { return IDMITControlBase + uint32(i) }

// Normalization scales for the gripper's raw hardware units.
const (
	GripperPositionScale = 100.0 // mm -> 0..1 travel fraction reference scale
	GripperForceScale    = 10.0  // N*m -> 0..1 torque fraction reference scale
)
