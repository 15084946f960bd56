package protocol

import "github.com/agilex/piper-can/frame"

// FirmwareVersionChunk is one frame of the 0x4AF firmware-version stream:
// a sequence index, a valid-byte count, and up to 6 ASCII bytes. The arm
// emits one chunk per frame; a chunk with Len < 6 is the last one.
type FirmwareVersionChunk struct {
	Index uint8
	Len   uint8
	Bytes [6]byte
}

func DecodeFirmwareVersionChunk(f frame.Frame) (FirmwareVersionChunk, error) {
	if f.ID != IDFirmwareVersion {
		return FirmwareVersionChunk{}, &Error{ID: f.ID, Kind: KindUnknownID}
	}
	if f.Len != 8 {
		return FirmwareVersionChunk{}, wrongLength(f.ID, int(f.Len), 8)
	}
	d := f.DataSlice()
	if d[1] > 6 {
		return FirmwareVersionChunk{}, &Error{ID: f.ID, Kind: KindInvalidEnum, Msg: "chunk len > 6"}
	}
	var c FirmwareVersionChunk
	c.Index = d[0]
	c.Len = d[1]
	copy(c.Bytes[:], d[2:8])
	return c, nil
}

// FirmwareVersionAssembler accumulates successive firmware-version chunks
// into a version string. It is not safe for concurrent use; callers
// serialize access the same way the RX loop serializes frame dispatch
//.
type FirmwareVersionAssembler struct {
	chunks   map[uint8]FirmwareVersionChunk
	nextWant uint8
	done     bool
	buf      []byte
}

func NewFirmwareVersionAssembler() *FirmwareVersionAssembler {
	return &FirmwareVersionAssembler{chunks: make(map[uint8]FirmwareVersionChunk)}
}

// Feed absorbs one chunk. It returns (version, true) once the chunk
// terminating the stream (Len < 6) has been consumed in order; chunks are
// consumed in index order regardless of arrival order.
func (a *FirmwareVersionAssembler) Feed(c FirmwareVersionChunk) (string, bool) {
	if a.done {
		return "", false
	}
	a.chunks[c.Index] = c
	for {
		chunk, ok := a.chunks[a.nextWant]
		if !ok {
			break
		}
		delete(a.chunks, a.nextWant)
		a.buf = append(a.buf, chunk.Bytes[:chunk.Len]...)
		a.nextWant++
		if chunk.Len < 6 {
			a.done = true
			return string(a.buf), true
		}
	}
	return "", false
}

// Reset discards any partial accumulation, for reuse across reconnects.
func (a *FirmwareVersionAssembler) Reset() {
	a.chunks = make(map[uint8]FirmwareVersionChunk)
	a.nextWant = 0
	a.done = false
	a.buf = nil
}
