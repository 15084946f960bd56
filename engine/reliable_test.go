package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/agilex/piper-can/frame"
)

func TestReliableQueueTrySendTryRecvFIFO(t *testing.T) {
	q := NewReliableQueue()
	for i := uint32(1); i <= 3; i++ {
		if err := q.TrySend(frame.New(i, nil)); err != nil {
			t.Fatalf("TrySend(%d): %v", i, err)
		}
	}
	for i := uint32(1); i <= 3; i++ {
		f, ok := q.TryRecv()
		if !ok || f.ID != i {
			t.Fatalf("TryRecv() = %v, %v; want id %d", f, ok, i)
		}
	}
	if _, ok := q.TryRecv(); ok {
		t.Fatal("TryRecv() on an empty queue should report false")
	}
}

func TestReliableQueueTrySendReportsFullAtCapacity(t *testing.T) {
	q := NewReliableQueue()
	for i := 0; i < ReliableQueueCap; i++ {
		if err := q.TrySend(frame.New(uint32(i), nil)); err != nil {
			t.Fatalf("TrySend(%d): %v", i, err)
		}
	}
	if err := q.TrySend(frame.New(999, nil)); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("TrySend() past capacity = %v, want ErrChannelFull", err)
	}
}

func TestReliableQueueSendBlocksThenTimesOut(t *testing.T) {
	q := NewReliableQueue()
	for i := 0; i < ReliableQueueCap; i++ {
		q.TrySend(frame.New(uint32(i), nil))
	}
	start := time.Now()
	err := q.Send(frame.New(999, nil), 20*time.Millisecond)
	if !errors.Is(err, ErrChannelFull) {
		t.Fatalf("Send() on a full queue = %v, want ErrChannelFull", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("Send() returned after %v, expected to wait out the timeout", elapsed)
	}
}

func TestReliableQueueCloseStopsFurtherSendsAndRecv(t *testing.T) {
	q := NewReliableQueue()
	q.TrySend(frame.New(1, nil))
	q.Close()

	if err := q.TrySend(frame.New(2, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("TrySend() after Close() = %v, want ErrClosed", err)
	}
	if err := q.Send(frame.New(2, nil), time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send() after Close() = %v, want ErrClosed", err)
	}

	f, ok := q.TryRecv()
	if !ok || f.ID != 1 {
		t.Fatalf("TryRecv() after Close() should still drain the frame enqueued before Close, got %v, %v", f, ok)
	}
	if _, ok := q.TryRecv(); ok {
		t.Fatal("TryRecv() on a drained, closed queue should report false forever, not replay zero frames")
	}
}
