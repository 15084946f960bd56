package gsusb

import (
	"testing"

	"github.com/agilex/piper-can/frame"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	f := frame.New(0x123, []byte{1, 2, 3, 4})
	w := wireFrameFrom(f)
	buf := make([]byte, frameSizeWithTimestamp)
	n := w.packTo(buf, false)
	if n != frameSizeNoTimestamp {
		t.Fatalf("packTo without timestamp = %d bytes, want %d", n, frameSizeNoTimestamp)
	}
	got := unpackWireFrame(buf, false)
	if got.canID != w.canID || got.canDLC != w.canDLC {
		t.Fatalf("round trip mismatch: %+v != %+v", got, w)
	}
	back := got.toFrame()
	if back.ID != f.ID || back.Len != f.Len {
		t.Fatalf("toFrame mismatch: %+v != %+v", back, f)
	}
}

func TestPackCanIDLittleEndian(t *testing.T) {
	f := frame.New(0x123, nil)
	w := wireFrameFrom(f)
	buf := make([]byte, frameSizeWithTimestamp)
	w.packTo(buf, false)
	if buf[4] != 0x23 || buf[5] != 0x01 || buf[6] != 0 || buf[7] != 0 {
		t.Fatalf("unexpected LE layout: % X", buf[4:8])
	}
}

func TestIsRxIsTxEcho(t *testing.T) {
	rx := wireFrame{echoID: echoIDNone}
	if !rx.isRxFrame() || rx.isTxEcho() {
		t.Fatal("expected RX classification")
	}
	tx := wireFrame{echoID: 7}
	if tx.isRxFrame() || !tx.isTxEcho() {
		t.Fatal("expected TX-echo classification")
	}
}

func TestLookupBitTimingKnownPair(t *testing.T) {
	bt, err := lookupBitTiming(48_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bt.brp == 0 {
		t.Fatal("expected nonzero brp")
	}
}

func TestLookupBitTimingUnsupported(t *testing.T) {
	if _, err := lookupBitTiming(12_345_678, 1_000_000); err == nil {
		t.Fatal("expected error for unsupported clock")
	}
	if _, err := lookupBitTiming(48_000_000, 42); err == nil {
		t.Fatal("expected error for unsupported bitrate")
	}
}

func TestIsKnownDevice(t *testing.T) {
	if !isKnownDevice(0x1D50, 0x606F) {
		t.Fatal("expected candleLight VID/PID to be known")
	}
	if isKnownDevice(0xFFFF, 0xFFFF) {
		t.Fatal("unexpected match for bogus VID/PID")
	}
}
