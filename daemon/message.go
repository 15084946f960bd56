// Package daemon implements the datagram IPC protocol that lets several
// processes share one CAN adapter: a server that owns the engine and fans
// out received frames to connected clients, and a client library that
// dials it. Wire framing is little-endian, fixed byte layout per message
// kind.
package daemon

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/agilex/piper-can/frame"
)

// Kind tags the first byte of every datagram.
type Kind uint8

const (
	KindConnect Kind = iota
	KindConnectAck
	KindHeartbeat
	KindDisconnect
	KindSendFrame
	KindReceiveFrame
	KindSetFilter
	KindGetStatus
	KindStatusResponse
	KindError
)

// ErrorCode is the small closed set §6.2 names.
type ErrorCode uint8

const (
	ErrClientExists ErrorCode = iota
	ErrUnknownClient
	ErrInvalidFilter
	ErrDeviceUnavailable
	ErrInternal
)

// ConnectStatus is ConnectAck's single status byte.
type ConnectStatus uint8

const (
	ConnectOK ConnectStatus = iota
	ConnectRejected
)

// Filter is one (id, mask) acceptance rule: a received frame is delivered
// to a client if frame.ID&mask == id&mask for at least one of its filters.
// An empty filter set means "accept everything".
type Filter struct {
	ID   uint32
	Mask uint32
}

// maxFilters bounds a single Connect/SetFilter datagram so it never grows
// past the ~64-byte budget §6.2 gives ordinary messages; a client
// needing more acceptance rules should prefer several narrower filters
// over one exhaustive list, the same tradeoff CAN_RAW_FILTER makes.
const maxFilters = 6

var (
	ErrShortDatagram  = errors.New("daemon: datagram too short")
	ErrUnknownKind    = errors.New("daemon: unknown message kind")
	ErrTooManyFilters = fmt.Errorf("daemon: filter count exceeds %d", maxFilters)
)

// Connect is a client's opening message; ClientID 0 asks the server to
// assign one.
type Connect struct {
	ClientID uint32
	Filters  []Filter
}

func (m Connect) Encode() []byte {
	b := make([]byte, 6+8*len(m.Filters))
	b[0] = byte(KindConnect)
	binary.LittleEndian.PutUint32(b[1:5], m.ClientID)
	b[5] = byte(len(m.Filters))
	for i, f := range m.Filters {
		off := 6 + i*8
		binary.LittleEndian.PutUint32(b[off:off+4], f.ID)
		binary.LittleEndian.PutUint32(b[off+4:off+8], f.Mask)
	}
	return b
}

func DecodeConnect(b []byte) (Connect, error) {
	if len(b) < 6 {
		return Connect{}, ErrShortDatagram
	}
	count := int(b[5])
	if count > maxFilters || len(b) < 6+8*count {
		return Connect{}, ErrTooManyFilters
	}
	m := Connect{ClientID: binary.LittleEndian.Uint32(b[1:5])}
	for i := 0; i < count; i++ {
		off := 6 + i*8
		m.Filters = append(m.Filters, Filter{
			ID:   binary.LittleEndian.Uint32(b[off : off+4]),
			Mask: binary.LittleEndian.Uint32(b[off+4 : off+8]),
		})
	}
	return m, nil
}

// ConnectAck is always exactly 13 bytes, trailing bytes
// reserved for future status detail.
type ConnectAck struct {
	ClientID uint32
	Status   ConnectStatus
}

const ConnectAckLen = 13

func (m ConnectAck) Encode() []byte {
	b := make([]byte, ConnectAckLen)
	b[0] = byte(KindConnectAck)
	binary.LittleEndian.PutUint32(b[1:5], m.ClientID)
	b[5] = byte(m.Status)
	return b
}

func DecodeConnectAck(b []byte) (ConnectAck, error) {
	if len(b) < ConnectAckLen {
		return ConnectAck{}, ErrShortDatagram
	}
	return ConnectAck{
		ClientID: binary.LittleEndian.Uint32(b[1:5]),
		Status:   ConnectStatus(b[5]),
	}, nil
}

// Heartbeat and Disconnect share the same tiny {kind, client_id} shape.
type Heartbeat struct{ ClientID uint32 }
type Disconnect struct{ ClientID uint32 }

func (m Heartbeat) Encode() []byte  { return encodeClientIDOnly(KindHeartbeat, m.ClientID) }
func (m Disconnect) Encode() []byte { return encodeClientIDOnly(KindDisconnect, m.ClientID) }

func encodeClientIDOnly(k Kind, id uint32) []byte {
	b := make([]byte, 5)
	b[0] = byte(k)
	binary.LittleEndian.PutUint32(b[1:5], id)
	return b
}

func decodeClientIDOnly(b []byte) (uint32, error) {
	if len(b) < 5 {
		return 0, ErrShortDatagram
	}
	return binary.LittleEndian.Uint32(b[1:5]), nil
}

func DecodeHeartbeat(b []byte) (Heartbeat, error) {
	id, err := decodeClientIDOnly(b)
	return Heartbeat{ClientID: id}, err
}

func DecodeDisconnect(b []byte) (Disconnect, error) {
	id, err := decodeClientIDOnly(b)
	return Disconnect{ClientID: id}, err
}

// SendFrame is a client's transmit request.
type SendFrame struct {
	Frame frame.Frame
	Seq   uint32
}

const sendFrameLen = 1 + 4 + 4 + 1 + 1 + frame.MaxDataLen

func (m SendFrame) Encode() []byte {
	b := make([]byte, sendFrameLen)
	b[0] = byte(KindSendFrame)
	binary.LittleEndian.PutUint32(b[1:5], m.Seq)
	binary.LittleEndian.PutUint32(b[5:9], m.Frame.ID)
	if m.Frame.IsExtended {
		b[9] = 1
	}
	b[10] = m.Frame.Len
	copy(b[11:11+frame.MaxDataLen], m.Frame.Data[:])
	return b
}

func DecodeSendFrame(b []byte) (SendFrame, error) {
	if len(b) < sendFrameLen {
		return SendFrame{}, ErrShortDatagram
	}
	f := frame.Frame{
		ID:         binary.LittleEndian.Uint32(b[5:9]),
		IsExtended: b[9] != 0,
		Len:        b[10],
	}
	copy(f.Data[:], b[11:11+frame.MaxDataLen])
	return SendFrame{Frame: f, Seq: binary.LittleEndian.Uint32(b[1:5])}, nil
}

// ReceiveFrame is the server's fan-out of one bus frame to a client.
type ReceiveFrame struct {
	Frame frame.Frame
}

const receiveFrameLen = 1 + 4 + 1 + 1 + frame.MaxDataLen + 8

func (m ReceiveFrame) Encode() []byte {
	b := make([]byte, receiveFrameLen)
	b[0] = byte(KindReceiveFrame)
	binary.LittleEndian.PutUint32(b[1:5], m.Frame.ID)
	if m.Frame.IsExtended {
		b[5] = 1
	}
	b[6] = m.Frame.Len
	copy(b[7:7+frame.MaxDataLen], m.Frame.Data[:])
	binary.LittleEndian.PutUint64(b[7+frame.MaxDataLen:], m.Frame.TimestampUs)
	return b
}

func DecodeReceiveFrame(b []byte) (ReceiveFrame, error) {
	if len(b) < receiveFrameLen {
		return ReceiveFrame{}, ErrShortDatagram
	}
	f := frame.Frame{
		ID:         binary.LittleEndian.Uint32(b[1:5]),
		IsExtended: b[5] != 0,
		Len:        b[6],
	}
	copy(f.Data[:], b[7:7+frame.MaxDataLen])
	f.TimestampUs = binary.LittleEndian.Uint64(b[7+frame.MaxDataLen:])
	return ReceiveFrame{Frame: f}, nil
}

// SetFilter replaces a client's acceptance rules.
type SetFilter struct {
	ClientID uint32
	Filters  []Filter
}

func (m SetFilter) Encode() []byte {
	b := make([]byte, 6+8*len(m.Filters))
	b[0] = byte(KindSetFilter)
	binary.LittleEndian.PutUint32(b[1:5], m.ClientID)
	b[5] = byte(len(m.Filters))
	for i, f := range m.Filters {
		off := 6 + i*8
		binary.LittleEndian.PutUint32(b[off:off+4], f.ID)
		binary.LittleEndian.PutUint32(b[off+4:off+8], f.Mask)
	}
	return b
}

func DecodeSetFilter(b []byte) (SetFilter, error) {
	if len(b) < 6 {
		return SetFilter{}, ErrShortDatagram
	}
	count := int(b[5])
	if count > maxFilters || len(b) < 6+8*count {
		return SetFilter{}, ErrTooManyFilters
	}
	m := SetFilter{ClientID: binary.LittleEndian.Uint32(b[1:5])}
	for i := 0; i < count; i++ {
		off := 6 + i*8
		m.Filters = append(m.Filters, Filter{
			ID:   binary.LittleEndian.Uint32(b[off : off+4]),
			Mask: binary.LittleEndian.Uint32(b[off+4 : off+8]),
		})
	}
	return m, nil
}

// GetStatus carries no payload beyond its kind byte.
type GetStatus struct{}

func (GetStatus) Encode() []byte { return []byte{byte(KindGetStatus)} }

// StatusResponse answers GetStatus with the daemon's health snapshot.
type StatusResponse struct {
	DeviceState  uint8 // connected/disconnected/reconnecting, see deviceStateCode in server.go
	RXFPSx1000   uint32
	TXFPSx1000   uint32
	IPCFPSx1000  uint32
	HealthScore  uint8
	RXFrames     uint64
	TXFrames     uint64
	ClientCount  uint16
}

const statusResponseLen = 1 + 1 + 4 + 4 + 4 + 1 + 8 + 8 + 2

func (m StatusResponse) Encode() []byte {
	b := make([]byte, statusResponseLen)
	b[0] = byte(KindStatusResponse)
	b[1] = m.DeviceState
	binary.LittleEndian.PutUint32(b[2:6], m.RXFPSx1000)
	binary.LittleEndian.PutUint32(b[6:10], m.TXFPSx1000)
	binary.LittleEndian.PutUint32(b[10:14], m.IPCFPSx1000)
	b[14] = m.HealthScore
	binary.LittleEndian.PutUint64(b[15:23], m.RXFrames)
	binary.LittleEndian.PutUint64(b[23:31], m.TXFrames)
	binary.LittleEndian.PutUint16(b[31:33], m.ClientCount)
	return b
}

func DecodeStatusResponse(b []byte) (StatusResponse, error) {
	if len(b) < statusResponseLen {
		return StatusResponse{}, ErrShortDatagram
	}
	return StatusResponse{
		DeviceState: b[1],
		RXFPSx1000:  binary.LittleEndian.Uint32(b[2:6]),
		TXFPSx1000:  binary.LittleEndian.Uint32(b[6:10]),
		IPCFPSx1000: binary.LittleEndian.Uint32(b[10:14]),
		HealthScore: b[14],
		RXFrames:    binary.LittleEndian.Uint64(b[15:23]),
		TXFrames:    binary.LittleEndian.Uint64(b[23:31]),
		ClientCount: binary.LittleEndian.Uint16(b[31:33]),
	}, nil
}

// ErrorMessage is the server's error reply; Msg is capped so the whole
// datagram stays well under typical UDP MTUs.
type ErrorMessage struct {
	Code ErrorCode
	Msg  string
}

const maxErrorMsgLen = 60

func (m ErrorMessage) Encode() []byte {
	msg := m.Msg
	if len(msg) > maxErrorMsgLen {
		msg = msg[:maxErrorMsgLen]
	}
	b := make([]byte, 3+len(msg))
	b[0] = byte(KindError)
	b[1] = byte(m.Code)
	b[2] = byte(len(msg))
	copy(b[3:], msg)
	return b
}

func DecodeErrorMessage(b []byte) (ErrorMessage, error) {
	if len(b) < 3 {
		return ErrorMessage{}, ErrShortDatagram
	}
	n := int(b[2])
	if len(b) < 3+n {
		return ErrorMessage{}, ErrShortDatagram
	}
	return ErrorMessage{Code: ErrorCode(b[1]), Msg: string(b[3 : 3+n])}, nil
}

// PeekKind reads a datagram's first byte without otherwise decoding it.
func PeekKind(b []byte) (Kind, error) {
	if len(b) < 1 {
		return 0, ErrShortDatagram
	}
	return Kind(b[0]), nil
}
