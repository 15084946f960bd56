package protocol

import (
	"testing"

	"github.com/agilex/piper-can/frame"
)

func chunkFrame(idx uint8, s string) frame.Frame {
	data := make([]byte, 8)
	data[0] = idx
	data[1] = byte(len(s))
	copy(data[2:], s)
	return frame.New(IDFirmwareVersion, data)
}

func TestFirmwareVersionAssembler(t *testing.T) {
	a := NewFirmwareVersionAssembler()
	c0, err := DecodeFirmwareVersionChunk(chunkFrame(0, "V1.6.0"))
	if err != nil {
		t.Fatalf("decode chunk 0: %v", err)
	}
	if _, done := a.Feed(c0); done {
		t.Fatal("should not be done after a full 6-byte chunk")
	}

	c1, err := DecodeFirmwareVersionChunk(chunkFrame(1, "-rc1"))
	if err != nil {
		t.Fatalf("decode chunk 1: %v", err)
	}
	version, done := a.Feed(c1)
	if !done {
		t.Fatal("expected completion on short final chunk")
	}
	if version != "V1.6.0-rc1" {
		t.Fatalf("version = %q, want %q", version, "V1.6.0-rc1")
	}
}

func TestFirmwareVersionAssemblerOutOfOrder(t *testing.T) {
	a := NewFirmwareVersionAssembler()
	c1, err := DecodeFirmwareVersionChunk(chunkFrame(1, "BC"))
	if err != nil {
		t.Fatalf("decode chunk 1: %v", err)
	}
	if _, done := a.Feed(c1); done {
		t.Fatal("should not complete before chunk 0 arrives")
	}
	c0, err := DecodeFirmwareVersionChunk(chunkFrame(0, "AAAAAA"))
	if err != nil {
		t.Fatalf("decode chunk 0: %v", err)
	}
	version, done := a.Feed(c0)
	if !done || version != "AAAAAABC" {
		t.Fatalf("version = %q done=%v, want %q true", version, done, "AAAAAABC")
	}
}

func TestDecodeFirmwareVersionChunkRejectsBadLen(t *testing.T) {
	f := chunkFrame(0, "x")
	f.Data[1] = 7
	if _, err := DecodeFirmwareVersionChunk(f); err == nil {
		t.Fatal("expected error for chunk len > 6")
	}
}
