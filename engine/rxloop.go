package engine

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/transport"
)

// runRX is the RX thread body: receive with a bounded
// timeout, dispatch on success, advance group timeouts on a receive
// timeout, and stop the engine on a fatal transport error.
func (e *Engine) runRX() {
	defer e.wg.Done()
	for {
		if !e.isRunning.Load() {
			return
		}
		f, err := e.rx().Receive()
		if err != nil {
			if transport.IsTimeout(err) {
				e.dispatcher.tick(time.Now())
				continue
			}
			var te *transport.Error
			if errors.As(err, &te) && te.Fatal() {
				logrus.Errorf("rx: fatal transport error: %v", err)
				e.isRunning.Store(false)
				e.notifyDisconnected()
				return
			}
			logrus.Warnf("rx: non-fatal receive error: %v", err)
			continue
		}

		e.rxFrames.Add(1)
		e.store.RXFPS.Record()
		e.rxHooks.Invoke(f)
		now := time.Now()
		e.dispatcher.dispatch(f, now)
		e.store.Connection.Touch(now)
	}
}
