package gsusb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// device wraps the gousb handles for a single claimed gs_usb adapter:
// context, device, claimed interface, and the two bulk endpoints.
type device struct {
	ctx      *gousb.Context
	usbDev   *gousb.Device
	intf     *gousb.Interface
	done     func()
	epIn     *gousb.InEndpoint
	epOut    *gousb.OutEndpoint
	hwTimestamp bool
}

// openDevice enumerates every known vendor/product pair and opens the
// first match, optionally filtered by a USB serial number or a decimal
// "bus:address" pair carried in selector (empty selector means "first
// device found").
func openDevice(selector string) (*device, error) {
	ctx := gousb.NewContext()

	var found *gousb.Device
	for _, vp := range knownVendorProducts {
		devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return desc.Vendor == gousb.ID(vp[0]) && desc.Product == gousb.ID(vp[1])
		})
		if err != nil {
			continue
		}
		for _, d := range devs {
			if found != nil || (selector != "" && !matchesSelector(d, selector)) {
				d.Close()
				continue
			}
			found = d
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		ctx.Close()
		return nil, fmt.Errorf("gsusb: no matching device found (selector=%q)", selector)
	}

	if err := found.SetAutoDetach(true); err != nil {
		// Not fatal: some platforms (Windows, or already-detached kernel
		// driver) return an error here harmlessly.
		_ = err
	}

	intf, done, err := found.DefaultInterface()
	if err != nil {
		found.Close()
		ctx.Close()
		return nil, fmt.Errorf("gsusb: claim interface: %w", err)
	}

	epOut, err := intf.OutEndpoint(1)
	if err != nil {
		done()
		found.Close()
		ctx.Close()
		return nil, fmt.Errorf("gsusb: out endpoint: %w", err)
	}
	epIn, err := intf.InEndpoint(1)
	if err != nil {
		done()
		found.Close()
		ctx.Close()
		return nil, fmt.Errorf("gsusb: in endpoint: %w", err)
	}

	return &device{ctx: ctx, usbDev: found, intf: intf, done: done, epIn: epIn, epOut: epOut}, nil
}

func matchesSelector(d *gousb.Device, selector string) bool {
	if selector == fmt.Sprintf("%d:%d", d.Desc.Bus, d.Desc.Address) {
		return true
	}
	serial, err := d.SerialNumber()
	if err != nil {
		return false
	}
	return serial == selector
}

func (d *device) controlOut(request uint8, value uint16, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), controlTransferTimeoutMs*time.Millisecond)
	defer cancel()
	_, err := d.usbDev.Control(
		uint8(gousb.ControlOut|gousb.ControlVendor|gousb.ControlInterface),
		request, value, 0, data)
	_ = ctx
	return err
}

func (d *device) controlIn(request uint8, value uint16, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := d.usbDev.Control(
		uint8(gousb.ControlIn|gousb.ControlVendor|gousb.ControlInterface),
		request, value, 0, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// start resets the controller, negotiates bit-timing, and sends MODE=START
// with the given flags intersected with the device's reported capability,
// following the gs_usb device lifecycle (§4.4 steps 1-8).
func (d *device) start(bitrate uint32, listenOnly, loopback bool) (effectiveFlags uint32, hwTimestamp bool, err error) {
	// 1. host format handshake: value is unused by the real protocol but
	// some firmware expects the call to have been made at least once.
	_ = d.controlOut(breqHostFormat, 0, make([]byte, 4))

	// 2. reset before reconfiguring.
	modeReset := make([]byte, 8)
	if err := d.controlOut(breqMode, 0, modeReset); err != nil {
		return 0, false, fmt.Errorf("gsusb: reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	capFlags, clockHz, err := d.capability()
	if err != nil {
		return 0, false, err
	}

	bt, err := lookupBitTiming(clockHz, bitrate)
	if err != nil {
		return 0, false, err
	}
	btBuf := make([]byte, 20)
	putU32(btBuf[0:4], bt.propSeg)
	putU32(btBuf[4:8], bt.phaseSeg1)
	putU32(btBuf[8:12], bt.phaseSeg2)
	putU32(btBuf[12:16], bt.sjw)
	putU32(btBuf[16:20], bt.brp)
	if err := d.controlOut(breqBitTiming, 0, btBuf); err != nil {
		return 0, false, fmt.Errorf("gsusb: set bit timing: %w", err)
	}

	wanted := gsCanModeHwTimestamp
	if listenOnly {
		wanted |= gsCanModeListenOnly
	}
	if loopback {
		wanted |= gsCanModeLoopBack
	}
	effective := wanted & capFlags

	startBuf := make([]byte, 8)
	putU32(startBuf[0:4], gsCanModeStart)
	putU32(startBuf[4:8], effective)
	if err := d.controlOut(breqMode, 0, startBuf); err != nil {
		return 0, false, fmt.Errorf("gsusb: start: %w", err)
	}

	d.hwTimestamp = effective&gsCanModeHwTimestamp != 0
	return effective, d.hwTimestamp, nil
}

// capability queries struct gs_device_bt_const via breqBtConst: feature
// flags and the controller clock in Hz, both needed to pick a bit-timing
// tuple and to mask requested start flags against what the device supports.
func (d *device) capability() (featureFlags, clockHz uint32, err error) {
	buf, err := d.controlIn(breqBtConst, 0, 40)
	if err != nil {
		return 0, 0, fmt.Errorf("gsusb: bt_const: %w", err)
	}
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("gsusb: bt_const short response (%d bytes)", len(buf))
	}
	featureFlags = getU32(buf[0:4])
	clockHz = getU32(buf[4:8])
	return featureFlags, clockHz, nil
}

// stop sends MODE=RESET, best-effort.
func (d *device) stop() {
	buf := make([]byte, 8)
	_ = d.controlOut(breqMode, 0, buf)
}

// release closes the interface and device handles in reverse acquisition
// order so the OS re-associates the device cleanly on the next open.
func (d *device) release() {
	if d.done != nil {
		d.done()
	}
	if d.usbDev != nil {
		d.usbDev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
}

// sendRaw performs a single bulk-OUT write of one wire frame with a 1 s
// timeout. On a write error it waits 50 ms and returns the error; it does
// not clear an endpoint halt.
func (d *device) sendRaw(w wireFrame) error {
	buf := make([]byte, frameSizeWithTimestamp)
	n := w.packTo(buf, d.hwTimestamp)
	ctx, cancel := context.WithTimeout(context.Background(), bulkTransferTimeoutMs*time.Millisecond)
	defer cancel()
	_, err := d.epOut.WriteContext(ctx, buf[:n])
	if err != nil {
		// Pause briefly before reporting the error; no halt is cleared.
		_ = d.epOut.Desc
		time.Sleep(50 * time.Millisecond)
		return err
	}
	return nil
}

// receiveBatch performs one bulk-IN read and returns every fixed-size
// frame found in the buffer; a trailing fractional frame is dropped with
// a warning from the caller, not here (see gsusb.go).
func (d *device) receiveBatch(timeout time.Duration) ([]wireFrame, int, error) {
	buf := make([]byte, maxBatchBytes)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := d.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, 0, err
	}
	frameSize := frameSizeNoTimestamp
	if d.hwTimestamp {
		frameSize = frameSizeWithTimestamp
	}
	count := n / frameSize
	trailing := n % frameSize
	out := make([]wireFrame, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, unpackWireFrame(buf[i*frameSize:(i+1)*frameSize], d.hwTimestamp))
	}
	return out, trailing, nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
