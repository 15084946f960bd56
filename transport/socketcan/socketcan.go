// Package socketcan implements the kernel-raw CAN backend (C3): it binds a
// Linux AF_CAN/SOCK_RAW socket to a named interface, enables nanosecond
// receive timestamping, and exposes RX/TX halves obtained by duplicating
// the socket's file descriptor. Accept filters can be set with SetFilters;
// neither Open nor Split installs any, so every frame on the bus is
// received.
package socketcan

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/transport"
	"github.com/agilex/piper-can/transport/transportreg"
)

func init() {
	if err := transportreg.Register("socketcan", Open); err != nil {
		log.WithError(err).Warn("socketcan: registration failed")
	}
}

// rawFrame mirrors struct can_frame from <linux/can.h>: 16 bytes, the
// layout unix.Write/unix.Read expect on a bound SOCK_RAW/CAN_RAW socket.
type rawFrame struct {
	id   uint32
	dlc  uint8
	pad  uint8
	res0 uint8
	res1 uint8
	data [frame.MaxDataLen]uint8
}

const rawFrameSize = 16

// bus is the bound, not-yet-split socketcan Device.
type bus struct {
	fd     int
	name   string
	mu     sync.Mutex
	closed bool
}

// Open binds and configures a socketcan transport.Device per cfg.Selector
// (the interface name, e.g. "can0" or "vcan0"). Bitrate, ListenOnly and
// Loopback are not applied here:
// this backend assumes the interface was brought up out-of-band (ip link
// set up type can bitrate ...), since doing so requires CAP_NET_ADMIN the
// library itself should not assume it has.
func Open(cfg transport.Config) (transport.Device, error) {
	iface := cfg.Selector
	if iface == "" {
		return nil, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: "socketcan: interface name required"}
	}
	up, err := CheckInterfaceUp(iface)
	if err != nil {
		return nil, err
	}
	if !up {
		return nil, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: fmt.Sprintf("socketcan: interface %q exists but is administratively DOWN; bring it up with 'sudo ip link set up %s'", iface, iface)}
	}

	ifindex, err := unix.IfNameToIndex(iface)
	if err != nil {
		return nil, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: fmt.Sprintf("socketcan: %s: %v", iface, err)}
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: socket: %v", err)}
	}

	// Disable loopback so our own transmitted frames do not reappear on
	// receive.
	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_RECV_OWN_MSGS, 0); err != nil {
		unix.Close(fd)
		return nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: disable loopback: %v", err)}
	}
	// Best-effort: request nanosecond software timestamping so Receive can
	// extract it via cmsg; hardware-transformed timestamps are preferred
	// when the NIC driver supports SOF_TIMESTAMPING_RAW_HARDWARE, silently
	// falling back otherwise.
	const timestampFlags = unix.SOF_TIMESTAMPING_SOFTWARE | unix.SOF_TIMESTAMPING_RX_SOFTWARE | unix.SOF_TIMESTAMPING_RAW_HARDWARE
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPING, timestampFlags); err != nil {
		log.WithError(err).Debug("socketcan: SO_TIMESTAMPING unavailable, falling back to zero timestamps")
	}

	timeout := cfg.ReceiveTimeout
	if timeout <= 0 {
		timeout = transport.DefaultConfig().ReceiveTimeout
	}
	if err := setRecvTimeout(fd, timeout); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifindex}); err != nil {
		unix.Close(fd)
		return nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: bind %s: %v", iface, err)}
	}

	return &bus{fd: fd, name: iface}, nil
}

func setRecvTimeout(fd int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: SO_RCVTIMEO: %v", err)}
	}
	return nil
}

func setSendTimeout(fd int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		return &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: SO_SNDTIMEO: %v", err)}
	}
	return nil
}

// SetFilters installs hardware accept-filters so the kernel only copies
// frames whose id matches one of the (id, mask) pairs into this socket's
// receive queue, reducing CPU load on a busy bus.
func (b *bus) SetFilters(filters []unix.CanFilter) error {
	if len(filters) == 0 {
		return nil
	}
	return unix.SetsockoptCanRawFilter(b.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, filters)
}

// Send implements transport.Sender.
func (b *bus) Send(f frame.Frame) error {
	return sendOn(b.fd, f)
}

func sendOn(fd int, f frame.Frame) error {
	id := f.ID
	if f.IsExtended {
		id |= unix.CAN_EFF_FLAG
	}
	raw := rawFrame{id: id, dlc: f.Len}
	copy(raw.data[:], f.Data[:])
	buf := (*(*[rawFrameSize]byte)(unsafe.Pointer(&raw)))[:]
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return transport.ErrTimeout
		}
		return &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: write: %v", err)}
	}
	if n != rawFrameSize {
		return &transport.Error{Kind: transport.KindInvalidFrame, Msg: "socketcan: short write"}
	}
	return nil
}

// Receive implements transport.Receiver. It uses recvmsg with an ancillary
// buffer to extract the SO_TIMESTAMPING control message alongside the raw
// frame, following the priority order hardware > software > absent
// (§4.3).
func (b *bus) Receive() (frame.Frame, error) {
	return receiveOn(b.fd)
}

func receiveOn(fd int) (frame.Frame, error) {
	var raw rawFrame
	buf := (*(*[rawFrameSize]byte)(unsafe.Pointer(&raw)))[:]
	oob := make([]byte, 256)

	for {
		n, oobn, _, _, err := unix.Recvmsg(fd, buf, oob, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return frame.Frame{}, transport.ErrTimeout
			}
			return frame.Frame{}, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: recvmsg: %v", err)}
		}
		if n < rawFrameSize {
			return frame.Frame{}, &transport.Error{Kind: transport.KindInvalidFrame, Msg: "socketcan: short read"}
		}

		if raw.id&unix.CAN_ERR_FLAG != 0 {
			kind, fatal := classifyErrorFrame(raw)
			if fatal {
				return frame.Frame{}, &transport.Error{Kind: kind, Msg: "socketcan: error frame"}
			}
			log.WithField("interface", fd).Debug("socketcan: non-fatal error frame, retrying receive")
			continue
		}

		ts := extractTimestamp(oob[:oobn])
		isExt := raw.id&unix.CAN_EFF_FLAG != 0
		id := raw.id & unix.CAN_SFF_MASK
		if isExt {
			id = raw.id & unix.CAN_EFF_MASK
		}
		dlc := raw.dlc
		if dlc > frame.MaxDataLen {
			dlc = frame.MaxDataLen
		}
		f := frame.Frame{ID: id, IsExtended: isExt, Len: dlc, TimestampUs: ts}
		copy(f.Data[:], raw.data[:])
		return f, nil
	}
}

// CAN error-frame class bits, from <linux/can/error.h>. golang.org/x/sys/unix
// exports only the handful of CAN constants needed for raw-filter setup, not
// the full error-frame class hierarchy, so these are defined locally.
const (
	canErrCRTL               = 0x00000004 // data[1] carries controller problems
	canErrBusOff             = 0x00000040
	canErrCRTLRxOverflow byte = 0x01
	canErrCRTLTxOverflow byte = 0x02
)

// classifyErrorFrame inspects the CAN error-frame class bits (the low 29
// bits of the id when CAN_ERR_FLAG is set carry CAN_ERR_* class flags) and
// promotes bus-off and controller-overflow to fatal transport errors;
// everything else is logged and the caller is told to retry.
func classifyErrorFrame(raw rawFrame) (transport.ErrorKind, bool) {
	class := raw.id &^ unix.CAN_ERR_FLAG
	switch {
	case class&canErrBusOff != 0:
		return transport.KindBusOff, true
	case class&canErrCRTL != 0 && raw.data[1]&canErrCRTLRxOverflow != 0:
		return transport.KindBufferOverflow, true
	case class&canErrCRTL != 0 && raw.data[1]&canErrCRTLTxOverflow != 0:
		return transport.KindBufferOverflow, true
	default:
		return 0, false
	}
}

// extractTimestamp walks the cmsg buffer looking for SCM_TIMESTAMPING,
// preferring the hardware-transformed (index 2) timespec over the software
// (index 0) one, and returns 0 (unknown) if neither is present.
func extractTimestamp(oob []byte) uint64 {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return 0
	}
	for _, m := range msgs {
		if m.Header.Level != unix.SOL_SOCKET || m.Header.Type != unix.SO_TIMESTAMPING {
			continue
		}
		// struct scm_timestamping { struct timespec sw; struct timespec
		// legacy (unused); struct timespec hw; }; each timespec is
		// 2*8 bytes on a 64-bit kernel ABI.
		const tsSize = 16
		if len(m.Data) < 3*tsSize {
			continue
		}
		hw := parseTimespec(m.Data[2*tsSize : 3*tsSize])
		if hw != 0 {
			return hw
		}
		sw := parseTimespec(m.Data[0:tsSize])
		return sw
	}
	return 0
}

func parseTimespec(b []byte) uint64 {
	sec := int64(b[0]) | int64(b[1])<<8 | int64(b[2])<<16 | int64(b[3])<<24 |
		int64(b[4])<<32 | int64(b[5])<<40 | int64(b[6])<<48 | int64(b[7])<<56
	nsec := int64(b[8]) | int64(b[9])<<8 | int64(b[10])<<16 | int64(b[11])<<24 |
		int64(b[12])<<32 | int64(b[13])<<40 | int64(b[14])<<48 | int64(b[15])<<56
	if sec == 0 && nsec == 0 {
		return 0
	}
	return uint64(sec)*1_000_000 + uint64(nsec)/1000
}

// Split implements transport.Splittable by duplicating the file
// descriptor: both halves share the open file description (and therefore
// file-status flags and CAN_RAW_FILTER), per the Splittable contract's
// shared-state caveat. The RX half never toggles non-blocking mode; both
// rely exclusively on SO_RCVTIMEO/SO_SNDTIMEO.
func (b *bus) Split() (transport.RX, transport.TX, error) {
	rxFd, err := unix.Dup(b.fd)
	if err != nil {
		return nil, nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: dup rx: %v", err)}
	}
	txFd, err := unix.Dup(b.fd)
	if err != nil {
		unix.Close(rxFd)
		return nil, nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: dup tx: %v", err)}
	}
	if err := setSendTimeout(txFd, 5*time.Millisecond); err != nil {
		unix.Close(rxFd)
		unix.Close(txFd)
		return nil, nil, err
	}
	return &rxHalf{fd: rxFd}, &txHalf{fd: txFd}, nil
}

// Close implements transport.Device.
func (b *bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return unix.Close(b.fd)
}

type rxHalf struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

func (r *rxHalf) Receive() (frame.Frame, error) { return receiveOn(r.fd) }

func (r *rxHalf) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return unix.Close(r.fd)
}

type txHalf struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

func (t *txHalf) Send(f frame.Frame) error { return sendOn(t.fd, f) }

func (t *txHalf) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return unix.Close(t.fd)
}

var (
	_ transport.Device = (*bus)(nil)
	_ transport.RX     = (*rxHalf)(nil)
	_ transport.TX     = (*txHalf)(nil)
)
