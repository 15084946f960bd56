package engine

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/transport"
)

// realtimeAntiStarvationLimit is the number of consecutive realtime
// services after which the TX loop falls through to the reliable queue
// for one round, guaranteeing reliable commands are never starved by a
// saturated realtime mailbox.
const realtimeAntiStarvationLimit = 100

// txIdleSleep is how long the TX loop sleeps when both queues are empty.
const txIdleSleep = 50 * time.Microsecond

// runTX is the TX thread body.
func (e *Engine) runTX() {
	defer e.wg.Done()
	consecutiveRealtime := 0
	for {
		if !e.isRunning.Load() {
			return
		}

		if consecutiveRealtime < realtimeAntiStarvationLimit {
			if pkg, ok := e.mailbox.Take(); ok {
				if !e.servicePackage(pkg) {
					return
				}
				consecutiveRealtime++
				continue
			}
		}
		consecutiveRealtime = 0

		if f, ok := e.reliable.TryRecv(); ok {
			if !e.serviceFrame(f) {
				return
			}
			continue
		}

		time.Sleep(txIdleSleep)
	}
}

// servicePackage sends each frame of pkg in order, abandoning the rest on
// the first failure. It returns false if the engine must stop.
func (e *Engine) servicePackage(pkg RealtimePackage) bool {
	for i, f := range pkg {
		if !e.serviceFrame(f) {
			return false
		}
		if e.lastSendFailed {
			e.txPartialPackages.Add(1)
			logrus.Warnf("tx: realtime package abandoned after %d/%d frames", i, len(pkg))
			break
		}
	}
	return true
}

// serviceFrame sends one frame and invokes TX hooks on success. It
// returns false if the error was fatal and the engine must stop.
func (e *Engine) serviceFrame(f frame.Frame) bool {
	err := e.tx().Send(f)
	e.lastSendFailed = err != nil
	if err == nil {
		e.txFrames.Add(1)
		e.store.TXFPS.Record()
		e.txHooks.Invoke(f)
		return true
	}

	var te *transport.Error
	if errors.As(err, &te) && (te.Kind == transport.KindBufferOverflow || isDeviceFamily(te.Kind)) {
		logrus.Errorf("tx: fatal transport error: %v", err)
		e.isRunning.Store(false)
		e.notifyDisconnected()
		return false
	}
	logrus.Warnf("tx: send error: %v", err)
	return true
}

func isDeviceFamily(k transport.ErrorKind) bool {
	switch k {
	case transport.KindDeviceNoDevice, transport.KindDeviceAccessDenied,
		transport.KindDeviceNotFound, transport.KindDeviceBusy, transport.KindDeviceBackend:
		return true
	default:
		return false
	}
}
