package state

import (
	"sync"

	"github.com/agilex/piper-can/protocol"
)

// Store is the engine's shared state: every hot snapshot kind behind its
// own atomic Slot, plus the cold configuration data and the per-subsystem
// counters the daemon's StatusResponse reports.
type Store struct {
	JointPosition    Slot[JointPositionSnapshot]
	EndPose          Slot[EndPoseSnapshot]
	JointDynamics    Slot[JointDynamicsSnapshot]
	LowSpeed         Slot[JointDriverLowSpeedSnapshot]
	RobotStatus      Slot[protocol.RobotStatus]
	Gripper          Slot[protocol.GripperFeedback]
	MasterSlaveEcho  Slot[MasterSlaveEchoSnapshot]

	cold ColdData

	RXFPS          FPSCounter
	TXFPS          FPSCounter
	IPCFPS         FPSCounter
	Connection     ConnectionMonitor
}

// New builds an empty store; every Slot reads as nil until first Store.
func New() *Store {
	return &Store{}
}

// MotionSnapshot performs two atomic loads in sequence — joint-position,
// then end-pose — and returns both. Consumers needing logical atomicity
// at the level of "position and pose together" accept the resulting tiny
// time-skew by contract: writers never publish stale snapshots, so the
// pair returned here is the two most-recent values the store has seen,
// even if they came from different RX cycles.
type MotionSnapshot struct {
	JointPosition *JointPositionSnapshot
	EndPose       *EndPoseSnapshot
}

func (s *Store) LoadMotionSnapshot() MotionSnapshot {
	jp := s.JointPosition.Load()
	ep := s.EndPose.Load()
	return MotionSnapshot{JointPosition: jp, EndPose: ep}
}

// ColdData holds the rarely-written configuration state: the firmware
// version string accumulated from the 0x4AF stream, and the most recent
// response to each of the four configuration queries. It is guarded by a
// read-write lock. TrySetLimit uses TryLock so a config update can never
// block the RX loop; SetFirmwareVersion takes the full write lock.
type ColdData struct {
	mu sync.RWMutex

	firmwareVersion string
	limits          map[uint32]protocol.LimitPair
}

// FirmwareVersion returns the most recently assembled firmware version
// string, or "" if none has completed yet.
func (c *ColdData) FirmwareVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.firmwareVersion
}

// SetFirmwareVersion blocks briefly to publish the completed version
// string; this only happens once per connection, so it is allowed to
// take the full write lock rather than try_write.
func (c *ColdData) SetFirmwareVersion(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.firmwareVersion = v
}

// Limit returns the most recent response to the configuration query
// carrying the given id.
func (c *ColdData) Limit(id uint32) (protocol.LimitPair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.limits == nil {
		return protocol.LimitPair{}, false
	}
	p, ok := c.limits[id]
	return p, ok
}

// TrySetLimit publishes a configuration-query response without blocking
// the RX loop: if the lock is contended it drops the update and reports
// false, matching §4.7's try_write policy. Losing an occasional
// config-query update is harmless since the client can simply re-query.
func (c *ColdData) TrySetLimit(id uint32, p protocol.LimitPair) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	if c.limits == nil {
		c.limits = make(map[uint32]protocol.LimitPair)
	}
	c.limits[id] = p
	return true
}

// Cold exposes the store's cold-data section.
func (s *Store) Cold() *ColdData { return &s.cold }
