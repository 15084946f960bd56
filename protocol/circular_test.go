package protocol

import "testing"

func TestCircularViaPointRoundTrip(t *testing.T) {
	c := CircularViaPoint{Index: 4}
	got, err := DecodeCircularViaPoint(c.ToFrame())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != c {
		t.Fatalf("got %+v, want %+v", got, c)
	}
}
