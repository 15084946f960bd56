package engine

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// connState is the supervisor's three-state machine.
type connState int

const (
	stateConnected connState = iota
	stateDisconnected
	stateReconnecting
)

func (s connState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateDisconnected:
		return "disconnected"
	case stateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// supervisor watches for a fatal transport error reported by the RX/TX
// loops and reopens the backend, debouncing flapping links and retrying
// on a fixed interval until it succeeds.
type supervisor struct {
	engine *Engine

	mu    sync.Mutex
	state connState

	disconnected chan struct{}
	stopCh       chan struct{}
	stopped      chan struct{}

	onConnected func()
}

func newSupervisor(e *Engine) *supervisor {
	return &supervisor{
		engine:       e,
		state:        stateConnected,
		disconnected: make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

func (s *supervisor) start() {
	go s.run()
}

func (s *supervisor) stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.stopped
}

// notifyDisconnected is called from the RX or TX goroutine the moment a
// fatal transport error is observed. It never blocks: the channel has a
// one-slot buffer and a second notification while one is pending is
// simply dropped, since the supervisor is already reacting.
func (s *supervisor) notifyDisconnected() {
	select {
	case s.disconnected <- struct{}{}:
	default:
	}
}

func (s *supervisor) setState(st connState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State reports the supervisor's current connection state, for the
// daemon's StatusResponse.
func (s *supervisor) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

func (s *supervisor) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.disconnected:
			s.handleDisconnect()
		}
	}
}

// handleDisconnect debounces briefly (a flapping link often recovers on
// its own within the bounce window), then retries opening the transport
// on a fixed interval until it succeeds or the engine is stopped.
func (s *supervisor) handleDisconnect() {
	s.setState(stateDisconnected)
	logrus.Warnf("supervisor: link down, waiting %v before reconnect attempts", s.engine.cfg.ReconnectDebounce)

	select {
	case <-s.stopCh:
		return
	case <-time.After(s.engine.cfg.ReconnectDebounce):
	}

	s.setState(stateReconnecting)
	ticker := time.NewTicker(s.engine.cfg.ReconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if s.tryReconnect() {
				return
			}
		}
	}
}

// tryReconnect reopens the backend, swaps the new handle into the engine
// under a single lock, and restarts the RX/TX threads. It keeps no fault
// latches and installs no backend callbacks, so there is nothing of that
// kind to clear or reinstall. It returns false on failure, leaving the
// caller to retry on the next tick.
func (s *supervisor) tryReconnect() bool {
	dev, err := s.engine.cfg.Opener(s.engine.cfg.TransportConfig)
	if err != nil {
		logrus.Warnf("supervisor: reconnect attempt failed: %v", err)
		return false
	}
	rxHalf, txHalf, err := dev.Split()
	if err != nil {
		dev.Close()
		logrus.Warnf("supervisor: reconnect split failed: %v", err)
		return false
	}

	s.engine.swapHandle(dev, rxHalf, txHalf)
	s.engine.resume()
	s.setState(stateConnected)
	logrus.Infof("supervisor: link restored")
	return true
}
