package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/agilex/piper-can/frame"
)

// ReliableQueueCap is the bounded FIFO capacity for non-realtime commands
// (mode-set, enable/disable, config queries).
const ReliableQueueCap = 10

// ErrChannelFull is returned by ReliableQueue.TrySend when the queue is
// at capacity; callers choose whether to retry or block.
var ErrChannelFull = errors.New("engine: reliable queue full")

// ReliableQueue is the bounded FIFO the TX loop services after the
// realtime mailbox. A Go channel already gives the lock-free
// multi-producer/single-consumer semantics §4.9 asks for.
type ReliableQueue struct {
	ch     chan frame.Frame
	closed atomic.Bool
}

// ErrClosed is returned by TrySend/Send once Close has been called.
var ErrClosed = errors.New("engine: reliable queue closed")

func NewReliableQueue() *ReliableQueue {
	return &ReliableQueue{ch: make(chan frame.Frame, ReliableQueueCap)}
}

// TrySend enqueues f without blocking, returning ErrChannelFull if the
// queue is at capacity.
func (q *ReliableQueue) TrySend(f frame.Frame) error {
	if q.closed.Load() {
		return ErrClosed
	}
	select {
	case q.ch <- f:
		return nil
	default:
		return ErrChannelFull
	}
}

// Send enqueues f, blocking up to timeout if the queue is full.
func (q *ReliableQueue) Send(f frame.Frame, timeout time.Duration) error {
	if q.closed.Load() {
		return ErrClosed
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- f:
		return nil
	case <-t.C:
		return ErrChannelFull
	}
}

// TryRecv dequeues one frame without blocking.
func (q *ReliableQueue) TryRecv() (frame.Frame, bool) {
	select {
	case f, ok := <-q.ch:
		return f, ok
	default:
		return frame.Frame{}, false
	}
}

// Close drops the send side so a pending TryRecv in the TX loop observes
// no more frames are coming (§5's drop sequence: drop the sender
// before joining TX).
func (q *ReliableQueue) Close() {
	q.closed.Store(true)
	close(q.ch)
}
