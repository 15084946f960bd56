package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/assembler"
	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/protocol"
	"github.com/agilex/piper-can/state"
)

// FrameGroupTimeout bounds a bitmask-completion group's age before its
// partial contents are discarded.
const FrameGroupTimeout = 10 * time.Millisecond

// VelocityBufferTimeout bounds the per-joint dynamics group's age before
// a partial buffer is force-committed.
const VelocityBufferTimeout = 6 * time.Millisecond

// dispatcher owns every frame-group assembler and decodes completed
// groups (or standalone frames) into the shared state store. One
// dispatcher belongs to exactly one engine and is only ever touched from
// the RX loop's goroutine.
type dispatcher struct {
	store *state.Store

	jointPosition *assembler.BitmaskGroup
	endPose       *assembler.BitmaskGroup
	masterSlave   *assembler.BitmaskGroup
	highSpeed     *assembler.DynamicsGroup
	lowSpeed      *assembler.DynamicsGroup

	firmware *protocol.FirmwareVersionAssembler
}

func newDispatcher(store *state.Store, now time.Time) *dispatcher {
	return &dispatcher{
		store: store,
		jointPosition: assembler.NewBitmaskGroup(
			[assembler.GroupSize]uint32{protocol.IDJointPosFB1, protocol.IDJointPosFB2, protocol.IDJointPosFB3},
			FrameGroupTimeout),
		endPose: assembler.NewBitmaskGroup(
			[assembler.GroupSize]uint32{protocol.IDEndPoseFB1, protocol.IDEndPoseFB2, protocol.IDEndPoseFB3},
			FrameGroupTimeout),
		masterSlave: assembler.NewBitmaskGroup(
			[assembler.GroupSize]uint32{protocol.IDJointTarget12, protocol.IDJointTarget34, protocol.IDJointTarget56},
			FrameGroupTimeout),
		highSpeed: assembler.NewDynamicsGroup(protocol.IDHighSpeedBase, VelocityBufferTimeout, now),
		lowSpeed:  assembler.NewDynamicsGroup(protocol.IDLowSpeedBase, VelocityBufferTimeout, now),
		firmware:  protocol.NewFirmwareVersionAssembler(),
	}
}

// dispatch routes one received frame by id into the codec and the
// appropriate assembler, publishing a new snapshot on group completion.
func (d *dispatcher) dispatch(f frame.Frame, now time.Time) {
	switch {
	case f.ID == protocol.IDJointPosFB1 || f.ID == protocol.IDJointPosFB2 || f.ID == protocol.IDJointPosFB3:
		d.onJointPosition(f, now)
	case f.ID == protocol.IDEndPoseFB1 || f.ID == protocol.IDEndPoseFB2 || f.ID == protocol.IDEndPoseFB3:
		d.onEndPose(f, now)
	case f.ID == protocol.IDJointTarget12 || f.ID == protocol.IDJointTarget34 || f.ID == protocol.IDJointTarget56:
		d.onMasterSlaveEcho(f, now)
	case f.ID >= protocol.IDHighSpeedBase && f.ID < protocol.IDHighSpeedBase+protocol.NumJoints:
		d.onHighSpeed(f, now)
	case f.ID >= protocol.IDLowSpeedBase && f.ID < protocol.IDLowSpeedBase+protocol.NumJoints:
		d.onLowSpeed(f, now)
	case f.ID == protocol.IDRobotStatus:
		d.onRobotStatus(f)
	case f.ID == protocol.IDGripperFB:
		d.onGripperFeedback(f)
	case f.ID == protocol.IDFirmwareVersion:
		d.onFirmwareChunk(f)
	default:
		// Ids the driver doesn't model a snapshot for (mode-set echo, query
		// responses consumed elsewhere, etc.) are silently ignored here.
	}
}

// tick advances every group's age-based timeout policy; called on every
// RX-loop receive timeout.
func (d *dispatcher) tick(now time.Time) {
	d.jointPosition.CheckTimeout(now)
	d.endPose.CheckTimeout(now)
	d.masterSlave.CheckTimeout(now)
	if frames, mask, committed := d.highSpeed.Tick(now); committed {
		d.publishHighSpeed(frames, mask, now)
	}
	if frames, mask, committed := d.lowSpeed.Tick(now); committed {
		d.publishLowSpeed(frames, mask, now)
	}
}

func (d *dispatcher) onJointPosition(f frame.Frame, now time.Time) {
	frames, mask, completed, _ := d.jointPosition.Observe(f, now)
	if !completed {
		return
	}
	var snap state.JointPositionSnapshot
	snap.Mask = mask
	snap.TimestampUs = uint64(now.UnixMicro())
	for i, pairFrame := range frames {
		a, b, err := protocol.DecodeJointTargetPair(pairFrame)
		if err != nil {
			logrus.Warnf("joint position frame %d decode: %v", i, err)
			continue
		}
		snap.Angles[i*2], snap.Angles[i*2+1] = a, b
	}
	d.store.JointPosition.Store(&snap)
}

func (d *dispatcher) onMasterSlaveEcho(f frame.Frame, now time.Time) {
	frames, mask, completed, _ := d.masterSlave.Observe(f, now)
	if !completed {
		return
	}
	var snap state.MasterSlaveEchoSnapshot
	snap.Mask = mask
	snap.TimestampUs = uint64(now.UnixMicro())
	for i, pairFrame := range frames {
		a, b, err := protocol.DecodeJointTargetPair(pairFrame)
		if err != nil {
			logrus.Warnf("master-slave echo frame %d decode: %v", i, err)
			continue
		}
		snap.Angles[i*2], snap.Angles[i*2+1] = a, b
	}
	d.store.MasterSlaveEcho.Store(&snap)
}

func (d *dispatcher) onEndPose(f frame.Frame, now time.Time) {
	frames, mask, completed, _ := d.endPose.Observe(f, now)
	if !completed {
		return
	}
	var snap state.EndPoseSnapshot
	snap.Mask = mask
	snap.TimestampUs = uint64(now.UnixMicro())
	x, y, err1 := protocol.DecodeEndPoseFrame1(frames[0])
	z, rx, err2 := protocol.DecodeEndPoseFrame2(frames[1])
	ry, rz, err3 := protocol.DecodeEndPoseFrame3(frames[2])
	if err1 != nil || err2 != nil || err3 != nil {
		logrus.Warnf("end-pose group decode: %v / %v / %v", err1, err2, err3)
		return
	}
	snap.Pose = protocol.EndPose{X: x, Y: y, Z: z, RX: rx, RY: ry, RZ: rz}
	d.store.EndPose.Store(&snap)
}

func (d *dispatcher) onHighSpeed(f frame.Frame, now time.Time) {
	frames, mask, committed, _ := d.highSpeed.Observe(f, now)
	if committed {
		d.publishHighSpeed(frames, mask, now)
	}
}

func (d *dispatcher) publishHighSpeed(frames [assembler.NumSlots]frame.Frame, mask uint8, now time.Time) {
	var snap state.JointDynamicsSnapshot
	snap.Mask = mask
	snap.TimestampUs = uint64(now.UnixMicro())
	for i := 0; i < protocol.NumJoints; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		fb, err := protocol.DecodeHighSpeedFeedback(frames[i])
		if err != nil {
			logrus.Warnf("high-speed feedback joint %d decode: %v", i, err)
			continue
		}
		snap.Velocities[i] = fb.VelocityRadPS
		snap.Currents[i] = fb.CurrentAmps
	}
	d.store.JointDynamics.Store(&snap)
}

func (d *dispatcher) onLowSpeed(f frame.Frame, now time.Time) {
	frames, mask, committed, _ := d.lowSpeed.Observe(f, now)
	if committed {
		d.publishLowSpeed(frames, mask, now)
	}
}

func (d *dispatcher) publishLowSpeed(frames [assembler.NumSlots]frame.Frame, mask uint8, now time.Time) {
	var snap state.JointDriverLowSpeedSnapshot
	snap.Mask = mask
	snap.TimestampUs = uint64(now.UnixMicro())
	for i := 0; i < protocol.NumJoints; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		fb, err := protocol.DecodeLowSpeedFeedback(frames[i])
		if err != nil {
			logrus.Warnf("low-speed feedback joint %d decode: %v", i, err)
			continue
		}
		snap.Entries[i] = fb
	}
	d.store.LowSpeed.Store(&snap)
}

func (d *dispatcher) onRobotStatus(f frame.Frame) {
	s, err := protocol.DecodeRobotStatus(f)
	if err != nil {
		logrus.Warnf("robot status decode: %v", err)
		return
	}
	d.store.RobotStatus.Store(&s)
}

func (d *dispatcher) onGripperFeedback(f frame.Frame) {
	g, err := protocol.DecodeGripperFeedback(f)
	if err != nil {
		logrus.Warnf("gripper feedback decode: %v", err)
		return
	}
	d.store.Gripper.Store(&g)
}

func (d *dispatcher) onFirmwareChunk(f frame.Frame) {
	c, err := protocol.DecodeFirmwareVersionChunk(f)
	if err != nil {
		logrus.Warnf("firmware version chunk decode: %v", err)
		return
	}
	if version, done := d.firmware.Feed(c); done {
		d.store.Cold().SetFirmwareVersion(version)
		d.firmware.Reset()
	}
}
