// Package gsusb implements the USB-class CAN backend (C4) for gs_usb /
// candleLight-protocol adapters: device enumeration, bit-timing
// negotiation, mode start/stop, and batched bulk-IN framing.
package gsusb

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/transport"
	"github.com/agilex/piper-can/transport/transportreg"
)

func init() {
	if err := transportreg.Register("gsusb", Open); err != nil {
		log.WithError(err).Warn("gsusb: registration failed")
	}
}

// adapter is the bound, not-yet-split gsusb transport.Device.
type adapter struct {
	dev     *device
	mu      sync.Mutex
	started bool

	rxMu  sync.Mutex
	rxQ   []frame.Frame
}

// Open enumerates, opens, and starts a gs_usb adapter per cfg. cfg.Selector
// is a USB serial number or a decimal "bus:address" pair, or "" for the
// first matching device. cfg.ReceiveTimeout is not used: each Receive
// waits at most 2 ms for a bulk-IN read.
func Open(cfg transport.Config) (transport.Device, error) {
	d, err := openDevice(cfg.Selector)
	if err != nil {
		return nil, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: err.Error()}
	}

	bitrate := cfg.Bitrate
	if bitrate == 0 {
		bitrate = transport.DefaultConfig().Bitrate
	}
	if _, _, err := d.start(bitrate, cfg.ListenOnly, cfg.Loopback); err != nil {
		d.release()
		return nil, &transport.Error{Kind: transport.KindDeviceBackend, Msg: err.Error()}
	}

	return &adapter{dev: d, started: true}, nil
}

// Send implements transport.Sender.
func (a *adapter) Send(f frame.Frame) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return &transport.Error{Kind: transport.KindNotStarted}
	}
	w := wireFrameFrom(f)
	if err := a.dev.sendRaw(w); err != nil {
		return classifyUSBError(err)
	}
	return nil
}

// Receive implements transport.Receiver: it drains a local queue first
// (fast path for a batch that yielded more than one frame) and otherwise
// performs a single bulk-IN read, dropping every TX echo (in loopback mode
// too) and promoting RX FIFO overflow to a fatal transport error.
func (a *adapter) Receive() (frame.Frame, error) {
	a.rxMu.Lock()
	if len(a.rxQ) > 0 {
		f := a.rxQ[0]
		a.rxQ = a.rxQ[1:]
		a.rxMu.Unlock()
		return f, nil
	}
	a.rxMu.Unlock()

	wires, trailing, err := a.dev.receiveBatch(2 * time.Millisecond)
	if err != nil {
		return frame.Frame{}, classifyUSBError(err)
	}
	if trailing != 0 {
		log.WithField("trailing_bytes", trailing).Warn("gsusb: bulk read ended mid-frame")
	}

	var next frame.Frame
	haveNext := false
	a.rxMu.Lock()
	for _, w := range wires {
		if w.hasOverflow() {
			a.rxMu.Unlock()
			return frame.Frame{}, &transport.Error{Kind: transport.KindBufferOverflow, Msg: "gsusb: RX FIFO overflow"}
		}
		if w.isTxEcho() {
			continue
		}
		f := w.toFrame()
		if !haveNext {
			next, haveNext = f, true
			continue
		}
		a.rxQ = append(a.rxQ, f)
	}
	a.rxMu.Unlock()

	if !haveNext {
		return frame.Frame{}, transport.ErrTimeout
	}
	return next, nil
}

func classifyUSBError(err error) error {
	// gousb surfaces libusb timeouts distinctly; treat anything else as a
	// generic backend error for the engine's fatal/non-fatal triage.
	if err == nil {
		return nil
	}
	msg := err.Error()
	if msg == "libusb: timeout [-7]" || msg == "context deadline exceeded" {
		return transport.ErrTimeout
	}
	return &transport.Error{Kind: transport.KindDeviceBackend, Msg: msg}
}

// Split implements transport.Splittable. gousb endpoints are safe for
// concurrent use from separate goroutines (one doing bulk-IN, one doing
// bulk-OUT), so both halves simply share *adapter rather than duplicating
// any handle.
func (a *adapter) Split() (transport.RX, transport.TX, error) {
	return &rxHalf{a}, &txHalf{a}, nil
}

// Close implements transport.Device: stop the controller (best-effort)
// then release the interface and USB handles in reverse order.
func (a *adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.started = false
	a.dev.stop()
	a.dev.release()
	return nil
}

type rxHalf struct{ a *adapter }

func (r *rxHalf) Receive() (frame.Frame, error) { return r.a.Receive() }
func (r *rxHalf) Close() error                  { return nil }

type txHalf struct{ a *adapter }

func (t *txHalf) Send(f frame.Frame) error { return t.a.Send(f) }
func (t *txHalf) Close() error             { return nil }

var (
	_ transport.Device = (*adapter)(nil)
	_ transport.RX     = (*rxHalf)(nil)
	_ transport.TX     = (*txHalf)(nil)
)
