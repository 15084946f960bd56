package socketcan

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestClassifyErrorFrameBusOff(t *testing.T) {
	raw := rawFrame{id: unix.CAN_ERR_FLAG | canErrBusOff}
	kind, fatal := classifyErrorFrame(raw)
	if !fatal {
		t.Fatal("expected bus-off to be fatal")
	}
	if kind.String() != "bus off" {
		t.Fatalf("kind = %v", kind)
	}
}

func TestClassifyErrorFrameRxOverflow(t *testing.T) {
	raw := rawFrame{id: unix.CAN_ERR_FLAG | canErrCRTL}
	raw.data[1] = canErrCRTLRxOverflow
	kind, fatal := classifyErrorFrame(raw)
	if !fatal || kind.String() != "buffer overflow" {
		t.Fatalf("kind=%v fatal=%v", kind, fatal)
	}
}

func TestClassifyErrorFrameBenign(t *testing.T) {
	raw := rawFrame{id: unix.CAN_ERR_FLAG}
	_, fatal := classifyErrorFrame(raw)
	if fatal {
		t.Fatal("expected benign error frame to be non-fatal")
	}
}

func TestCheckInterfaceUpRejectsLongNames(t *testing.T) {
	_, err := CheckInterfaceUp("way-too-long-interface-name")
	if err == nil {
		t.Fatal("expected error for over-length interface name")
	}
}

func TestParseTimespecZero(t *testing.T) {
	if got := parseTimespec(make([]byte, 16)); got != 0 {
		t.Fatalf("parseTimespec(zero) = %d, want 0", got)
	}
}
