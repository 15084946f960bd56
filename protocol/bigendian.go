package protocol

// Big-endian (Motorola MSB-first) helpers for the payload fields inside CAN
// frames — the wire convention this protocol uses throughout, even though
// the transport's own framing (gs_usb wire layout, daemon IPC) is
// little-endian. Keeping these isolated from transport/daemon concerns
// avoids any accidental byte-order mixing between the two conventions.

func i32ToBytesBE(v int32) [4]byte {
	u := uint32(v)
	return [4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

func bytesToI32BE(b []byte) int32 {
	u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return int32(u)
}

func i16ToBytesBE(v int16) [2]byte {
	u := uint16(v)
	return [2]byte{byte(u >> 8), byte(u)}
}

func bytesToI16BE(b []byte) int16 {
	u := uint16(b[0])<<8 | uint16(b[1])
	return int16(u)
}

func u16ToBytesBE(v uint16) [2]byte {
	return [2]byte{byte(v >> 8), byte(v)}
}

func bytesToU16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
