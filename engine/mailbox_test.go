package engine

import (
	"testing"

	"github.com/agilex/piper-can/frame"
)

func TestMailboxPutTakeRoundTrip(t *testing.T) {
	var m Mailbox
	pkg := RealtimePackage{frame.New(0x155, []byte{1, 2}), frame.New(0x156, []byte{3, 4})}

	if overwrote := m.Put(pkg); overwrote {
		t.Fatal("first Put should not report an overwrite")
	}
	got, ok := m.Take()
	if !ok || len(got) != 2 {
		t.Fatalf("Take() = %v, %v; want the package back", got, ok)
	}
	if _, ok := m.Take(); ok {
		t.Fatal("Take() on an empty mailbox should report false")
	}
}

func TestMailboxPutOverwritesUnconsumedPackage(t *testing.T) {
	var m Mailbox
	m.Put(RealtimePackage{frame.New(0x1, nil)})
	if overwrote := m.Put(RealtimePackage{frame.New(0x2, nil)}); !overwrote {
		t.Fatal("second Put before any Take should report an overwrite")
	}
	got, ok := m.Take()
	if !ok || got[0].ID != 0x2 {
		t.Fatalf("Take() should yield the latest package, got %v", got)
	}
}

func TestMailboxOverwriteRate(t *testing.T) {
	var m Mailbox
	m.Put(RealtimePackage{frame.New(0x1, nil)})
	m.Put(RealtimePackage{frame.New(0x2, nil)})
	m.Put(RealtimePackage{frame.New(0x3, nil)})
	m.Take()

	if rate := m.OverwriteRate(); rate < 0.6 || rate > 0.7 {
		t.Fatalf("OverwriteRate() = %v, want 2/3", rate)
	}
	if rate := m.OverwriteRate(); rate != 0 {
		t.Fatalf("OverwriteRate() after reset = %v, want 0", rate)
	}
}
