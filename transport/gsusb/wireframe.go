package gsusb

import (
	"encoding/binary"

	"github.com/agilex/piper-can/frame"
)

// wireFrame mirrors struct gs_host_frame from the gs_usb protocol: a
// little-endian, fixed-size bulk transfer payload. The trailing 4-byte
// hardware timestamp is present only when hwTimestamp was negotiated at
// Start.
type wireFrame struct {
	echoID      uint32
	canID       uint32
	canDLC      uint8
	channel     uint8
	flags       uint8
	reserved    uint8
	data        [frame.MaxDataLen]byte
	timestampUs uint32
}

// packTo serializes w into buf (which must be at least frameSizeNoTimestamp,
// or frameSizeWithTimestamp when hwTimestamp is true) in little-endian
// byte order, matching the kernel driver's struct layout exactly.
func (w wireFrame) packTo(buf []byte, hwTimestamp bool) int {
	binary.LittleEndian.PutUint32(buf[0:4], w.echoID)
	binary.LittleEndian.PutUint32(buf[4:8], w.canID)
	buf[8] = w.canDLC
	buf[9] = w.channel
	buf[10] = w.flags
	buf[11] = w.reserved
	copy(buf[12:20], w.data[:])
	if hwTimestamp {
		binary.LittleEndian.PutUint32(buf[20:24], w.timestampUs)
		return frameSizeWithTimestamp
	}
	return frameSizeNoTimestamp
}

// unpackWireFrame parses a single fixed-size frame out of buf. hwTimestamp
// selects whether the trailing 4 bytes are interpreted as a timestamp.
func unpackWireFrame(buf []byte, hwTimestamp bool) wireFrame {
	var w wireFrame
	w.echoID = binary.LittleEndian.Uint32(buf[0:4])
	w.canID = binary.LittleEndian.Uint32(buf[4:8])
	w.canDLC = buf[8]
	w.channel = buf[9]
	w.flags = buf[10]
	w.reserved = buf[11]
	copy(w.data[:], buf[12:20])
	if hwTimestamp && len(buf) >= frameSizeWithTimestamp {
		w.timestampUs = binary.LittleEndian.Uint32(buf[20:24])
	}
	return w
}

// isRxFrame reports whether w is a genuine bus-received frame as opposed
// to a TX-completion echo: the device never requests an echo for RX
// frames, so both carry the same echoIDNone sentinel, and are
// distinguished by context (receiveBatch classifies by scanning mode).
func (w wireFrame) isRxFrame() bool { return w.echoID == echoIDNone }

func (w wireFrame) isTxEcho() bool { return w.echoID != echoIDNone }

// hasOverflow reports the device-local RX FIFO overflow flag, carried in
// the high bit of canDLC on devices that support it.
func (w wireFrame) hasOverflow() bool { return w.canDLC&0x80 != 0 }

func (w wireFrame) toFrame() frame.Frame {
	isExt := w.canID&canEFFFlag != 0
	id := w.canID & canSFFMask
	if isExt {
		id = w.canID & canEFFMask
	}
	dlc := w.canDLC &^ 0x80
	if dlc > frame.MaxDataLen {
		dlc = frame.MaxDataLen
	}
	f := frame.Frame{ID: id, IsExtended: isExt, Len: dlc, TimestampUs: uint64(w.timestampUs)}
	copy(f.Data[:], w.data[:])
	return f
}

func wireFrameFrom(f frame.Frame) wireFrame {
	id := f.ID
	if f.IsExtended {
		id |= canEFFFlag
	}
	w := wireFrame{echoID: echoIDNone, canID: id, canDLC: f.Len}
	copy(w.data[:], f.Data[:])
	return w
}
