package protocol

import "testing"

func TestI32BERoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 10000, -10000, 2147483647, -2147483648} {
		b := i32ToBytesBE(v)
		got := bytesToI32BE(b[:])
		if got != v {
			t.Fatalf("round trip %d -> %v -> %d", v, b, got)
		}
	}
}

func TestI16BERoundTrip(t *testing.T) {
	for _, v := range []int16{0, 1, -1, 32767, -32768} {
		b := i16ToBytesBE(v)
		got := bytesToI16BE(b[:])
		if got != v {
			t.Fatalf("round trip %d -> %v -> %d", v, b, got)
		}
	}
}

func TestI32BEByteOrder(t *testing.T) {
	b := i32ToBytesBE(10000)
	want := [4]byte{0x00, 0x00, 0x27, 0x10}
	if b != want {
		t.Fatalf("i32ToBytesBE(10000) = % X, want % X", b, want)
	}
}
