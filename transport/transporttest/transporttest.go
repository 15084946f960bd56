// Package transporttest implements fakes for package transport, in the
// style of conn/conntest's Record/Playback fakes: an in-memory Device that
// lets engine/assembler/protocol tests run without real hardware.
package transporttest

import (
	"sync"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/transport"
)

// Loopback implements transport.Device entirely in memory: every Send()
// queues a frame that a later Receive() (on the same handle, or on a
// Split() RX half) will return, FIFO. It is meant for engine-level tests
// that exercise a full RX/TX loop pair without a real bus.
type Loopback struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    []frame.Frame
	sent []frame.Frame
	closed bool
}

// NewLoopback constructs an empty Loopback.
func NewLoopback() *Loopback {
	l := &Loopback{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Send implements transport.Sender. It also queues the frame for Receive,
// emulating a bus in loopback mode, and separately records it in Sent for
// assertions.
func (l *Loopback) Send(f frame.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return &transport.Error{Kind: transport.KindNotStarted, Msg: "loopback closed"}
	}
	l.sent = append(l.sent, f)
	l.q = append(l.q, f)
	l.cond.Broadcast()
	return nil
}

// Inject pushes a frame directly into the receive queue, as if it arrived
// from the bus, without going through Send.
func (l *Loopback) Inject(f frame.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.q = append(l.q, f)
	l.cond.Broadcast()
}

// Receive implements transport.Receiver. It blocks until a frame is
// available or the Loopback is closed.
func (l *Loopback) Receive() (frame.Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.q) == 0 && !l.closed {
		l.cond.Wait()
	}
	if len(l.q) == 0 {
		return frame.Frame{}, transport.ErrTimeout
	}
	f := l.q[0]
	l.q = l.q[1:]
	return f, nil
}

// Split implements transport.Splittable. Both halves share the same
// underlying queues; this mirrors a kernel dup() or a reference-counted
// USB handle.
func (l *Loopback) Split() (transport.RX, transport.TX, error) {
	return &rxHalf{l}, &txHalf{l}, nil
}

// Close implements transport.Device.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cond.Broadcast()
	return nil
}

// Sent returns a snapshot of every frame ever passed to Send, in order.
func (l *Loopback) Sent() []frame.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]frame.Frame, len(l.sent))
	copy(out, l.sent)
	return out
}

type rxHalf struct{ l *Loopback }

func (r *rxHalf) Receive() (frame.Frame, error) { return r.l.Receive() }
func (r *rxHalf) Close() error                  { return nil }

type txHalf struct{ l *Loopback }

func (t *txHalf) Send(f frame.Frame) error { return t.l.Send(f) }
func (t *txHalf) Close() error             { return nil }

var (
	_ transport.Device = (*Loopback)(nil)
	_ transport.RX     = (*rxHalf)(nil)
	_ transport.TX     = (*txHalf)(nil)
)
