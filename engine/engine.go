// Package engine is the concurrent I/O core (§4.8-§4.10): an RX
// thread, a TX thread servicing a realtime mailbox and a reliable FIFO
// with strict priority, and a supervisor that reopens the transport after
// a disconnect. Exactly these three long-lived goroutines exist per
// engine; there is no per-request goroutine spawning.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/state"
	"github.com/agilex/piper-can/transport"
)

// Config carries what the engine needs to open and, on disconnect,
// reopen the transport.
type Config struct {
	Opener            transport.Opener
	TransportConfig   transport.Config
	ReconnectDebounce time.Duration // §4.10, default 500ms
	ReconnectInterval time.Duration // §4.10, default 1s
}

// DefaultConfig fills in §4.10's documented debounce/interval.
func DefaultConfig(opener transport.Opener, tcfg transport.Config) Config {
	return Config{
		Opener:            opener,
		TransportConfig:   tcfg,
		ReconnectDebounce: 500 * time.Millisecond,
		ReconnectInterval: time.Second,
	}
}

// Engine owns a transport device, the shared state store, the TX queues,
// and the supervisor that keeps the device alive across disconnects.
type Engine struct {
	cfg   Config
	store *state.Store

	// handleMu guards device/rxHalf/txHalf together, taken in a single
	// fixed order by both RX/TX accessors and the supervisor's swap, to
	// avoid the lock-ordering deadlock §4.10 calls out.
	handleMu sync.RWMutex
	device   transport.Device
	rxHalf   transport.RX
	txHalf   transport.TX

	dispatcher *dispatcher
	mailbox    Mailbox
	reliable   *ReliableQueue

	rxHooks hookRegistry
	txHooks hookRegistry

	isRunning atomic.Bool
	wg        sync.WaitGroup

	supervisor *supervisor

	rxFrames          atomic.Uint64
	txFrames          atomic.Uint64
	txPartialPackages atomic.Uint64

	// lastSendFailed is only ever touched from the TX goroutine.
	lastSendFailed bool
}

// New opens the transport and builds an idle engine; call Start to launch
// the RX/TX/supervisor threads.
func New(cfg Config, store *state.Store) (*Engine, error) {
	dev, err := cfg.Opener(cfg.TransportConfig)
	if err != nil {
		return nil, err
	}
	rxHalf, txHalf, err := dev.Split()
	if err != nil {
		dev.Close()
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		store:    store,
		device:   dev,
		rxHalf:   rxHalf,
		txHalf:   txHalf,
		reliable: NewReliableQueue(),
	}
	e.dispatcher = newDispatcher(store, time.Now())
	e.supervisor = newSupervisor(e)
	return e, nil
}

// Start launches the RX, TX, and supervisor threads.
func (e *Engine) Start() {
	e.isRunning.Store(true)
	e.wg.Add(2)
	go e.runRX()
	go e.runTX()
	e.supervisor.start()
}

// Stop implements §5's drop sequence: flip the running flag, drop
// the reliable queue's sender before joining TX, join the supervisor
// (with no timeout), then wait up to 2s in total for the RX and TX
// threads together.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
	e.reliable.Close()
	e.supervisor.stop()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		// OS reclaims the goroutines' resources on process exit; we only
		// log and move on rather than block shutdown indefinitely.
		logrus.Warn("engine: RX/TX threads did not exit within 2s; continuing shutdown")
	}

	e.handleMu.RLock()
	defer e.handleMu.RUnlock()
	e.rxHalf.Close()
	e.txHalf.Close()
	e.device.Close()
}

// SendRealtime publishes pkg to the mailbox, overwriting any unconsumed
// previous package.
func (e *Engine) SendRealtime(pkg RealtimePackage) (overwrote bool) {
	return e.mailbox.Put(pkg)
}

// SendReliable enqueues f on the bounded FIFO without blocking.
func (e *Engine) SendReliable(f frame.Frame) error {
	return e.reliable.TrySend(f)
}

// SendReliableBlocking enqueues f, blocking up to timeout if the queue is
// full.
func (e *Engine) SendReliableBlocking(f frame.Frame, timeout time.Duration) error {
	return e.reliable.Send(f, timeout)
}

// RegisterRXHook adds a hook invoked on every successfully received
// frame, from the RX goroutine, just before the frame is dispatched.
func (e *Engine) RegisterRXHook(h Hook) { e.rxHooks.Register(h) }

// RegisterTXHook adds a hook invoked on every successfully sent frame.
func (e *Engine) RegisterTXHook(h Hook) { e.txHooks.Register(h) }

func (e *Engine) rx() transport.RX {
	e.handleMu.RLock()
	defer e.handleMu.RUnlock()
	return e.rxHalf
}

func (e *Engine) tx() transport.TX {
	e.handleMu.RLock()
	defer e.handleMu.RUnlock()
	return e.txHalf
}

// swapHandle installs a freshly reopened device/halves under a single
// lock, per §4.10.
func (e *Engine) swapHandle(dev transport.Device, rxHalf transport.RX, txHalf transport.TX) {
	e.handleMu.Lock()
	defer e.handleMu.Unlock()
	e.device = dev
	e.rxHalf = rxHalf
	e.txHalf = txHalf
}

func (e *Engine) notifyDisconnected() {
	e.supervisor.notifyDisconnected()
}

// IsRunning reports whether the RX/TX threads are currently active.
func (e *Engine) IsRunning() bool { return e.isRunning.Load() }

// Store exposes the shared state store, for the daemon's StatusResponse
// and any other read-only consumer outside the engine package.
func (e *Engine) Store() *state.Store { return e.store }

// SupervisorState reports the engine's connection state as a small
// string ("connected", "disconnected", "reconnecting"), for the daemon's
// StatusResponse.
func (e *Engine) SupervisorState() string { return e.supervisor.State() }

// RXFrames and TXFrames report the running frame counters.
func (e *Engine) RXFrames() uint64 { return e.rxFrames.Load() }
func (e *Engine) TXFrames() uint64 { return e.txFrames.Load() }

// Resume restarts the RX/TX threads after the supervisor has reinstalled
// a working handle.
func (e *Engine) resume() {
	if e.isRunning.CompareAndSwap(false, true) {
		e.wg.Add(2)
		go e.runRX()
		go e.runTX()
	}
}
