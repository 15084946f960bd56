// Package transport defines the CAN adapter contract: a bounded send, a
// bounded-timeout receive, and a Splittable refinement that yields disjoint
// RX/TX halves for concurrent use by the engine's RX and TX threads.
//
// The contract generalizes conn.Conn's single synchronous Tx(w, r []byte)
// into two independent half-duplex directions, because a CAN adapter's RX
// and TX paths run on different goroutines and must never share a lock
// across direction.
package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/agilex/piper-can/frame"
)

// ErrorKind classifies a transport error for the engine's fatal/non-fatal
// triage (see engine package).
type ErrorKind int

const (
	// KindTimeout means the bounded wait elapsed with no frame. Non-fatal.
	KindTimeout ErrorKind = iota
	// KindDeviceNoDevice means the underlying device disappeared (unplugged).
	KindDeviceNoDevice
	// KindDeviceAccessDenied means the OS denied access to the device.
	KindDeviceAccessDenied
	// KindDeviceNotFound means the configured selector matched nothing.
	KindDeviceNotFound
	// KindDeviceBusy means the device is claimed by another process.
	KindDeviceBusy
	// KindDeviceBackend is a backend-specific error (USB stack, syscall).
	KindDeviceBackend
	// KindInvalidFrame means the backend rejected a malformed frame.
	KindInvalidFrame
	// KindInvalidResponse means a control/bulk transfer returned unexpected data.
	KindInvalidResponse
	// KindBusOff is fatal: the CAN controller entered bus-off.
	KindBusOff
	// KindBufferOverflow is fatal: the backend's internal buffer overflowed.
	KindBufferOverflow
	// KindNotStarted is a configuration bug: send/receive before Start.
	KindNotStarted
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDeviceNoDevice:
		return "device: no device"
	case KindDeviceAccessDenied:
		return "device: access denied"
	case KindDeviceNotFound:
		return "device: not found"
	case KindDeviceBusy:
		return "device: busy"
	case KindDeviceBackend:
		return "device: backend error"
	case KindInvalidFrame:
		return "invalid frame"
	case KindInvalidResponse:
		return "invalid response"
	case KindBusOff:
		return "bus off"
	case KindBufferOverflow:
		return "buffer overflow"
	case KindNotStarted:
		return "not started"
	default:
		return "unknown"
	}
}

// Error is the typed transport error. Use errors.As to recover the Kind.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Fatal reports whether this error should drive the engine's is_running
// flag to false and hand off to the supervisor: BusOff, BufferOverflow,
// NoDevice, AccessDenied and NotFound are fatal; Busy, Backend,
// InvalidFrame, InvalidResponse, NotStarted and Timeout are not.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindBusOff, KindBufferOverflow, KindDeviceNoDevice, KindDeviceAccessDenied, KindDeviceNotFound:
		return true
	default:
		return false
	}
}

// IsTimeout reports whether err is (or wraps) a Timeout transport error.
func IsTimeout(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == KindTimeout
	}
	return false
}

// ErrTimeout is a convenience sentinel value for backends to return.
var ErrTimeout = &Error{Kind: KindTimeout}

// Sender is the fire-and-forget, bounded-wait transmit half of the
// contract. Success means the frame entered the backend's transmit
// pipeline (kernel queue or USB OUT buffer); no bus-level ACK is awaited.
type Sender interface {
	Send(f frame.Frame) error
}

// Receiver is the blocking-with-timeout receive half.
type Receiver interface {
	Receive() (frame.Frame, error)
}

// Device is a bound, not-yet-split CAN transport: a single handle capable
// of both Send and Receive, and of being split into concurrent halves.
type Device interface {
	Sender
	Receiver
	Splittable
	// Close releases the underlying handle. Safe to call after Split. The
	// socketcan halves hold their own duplicated descriptors and stay
	// valid until they are independently closed; the gsusb and
	// transporttest halves share the Device and stop working once it is
	// closed.
	Close() error
}

// Splittable yields independent RX and TX halves of a Device suitable for
// concurrent use from separate goroutines. Implementations achieve this
// either by duplicating a file descriptor (kernel backends) or by sharing
// a reference-counted, internally thread-safe handle (USB backends).
//
// Shared-state caveat: whichever strategy is used, the RX half MUST NOT
// toggle non-blocking mode or anything else that is shared file-description
// state; bound waits must come exclusively from read/write deadlines or
// socket-level receive/send timeouts.
type Splittable interface {
	Split() (RX, TX, error)
}

// RX is the receive-only half produced by Split.
type RX interface {
	Receiver
	Close() error
}

// TX is the send-only half produced by Split.
type TX interface {
	Sender
	Close() error
}

// Opener constructs and fully configures a Device: open the handle,
// negotiate bit-timing, and start the controller. Backends register an
// Opener with transportreg under a scheme name ("socketcan", "gsusb").
type Opener func(cfg Config) (Device, error)

// Config carries the backend-agnostic tunables every Opener accepts.
// Backend-specific fields (interface name, serial selector) are carried in
// the Selector string, a plain name/alias rather than a typed union.
type Config struct {
	// Selector names the specific device: an interface name for socketcan
	// ("can0"), or a serial number / decimal bus:address pair for gsusb
	// ("" means "first matching device").
	Selector string
	// Bitrate is the CAN bus bit rate in bits/second (default 1_000_000).
	Bitrate uint32
	// ReceiveTimeout bounds Receive (default 2ms, §6.3).
	ReceiveTimeout time.Duration
	// ListenOnly starts the controller without ACKing frames on the bus.
	ListenOnly bool
	// Loopback starts the controller in self-loopback mode (testing only).
	Loopback bool
}

// DefaultConfig returns the documented defaults from §6.3.
func DefaultConfig() Config {
	return Config{
		Bitrate:        1_000_000,
		ReceiveTimeout: 2 * time.Millisecond,
	}
}
