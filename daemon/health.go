package daemon

import (
	"math"
	"sync/atomic"
	"time"
)

// warmupPeriod is how long the baseline tracker accumulates a plain
// average before switching to an EWMA, so a startup burst of dropped
// frames doesn't immediately read as "performance degraded" (§4.11,
// grounded on original_source's WARMUP_PERIOD_SECS=10/EWMA_ALPHA=0.01).
const warmupPeriod = 10 * time.Second

const ewmaAlpha = 0.01

// Baseline tracks a slowly-adapting expected FPS for RX and TX, entirely
// with atomics so the IPC goroutine answering GetStatus can update it
// without ever blocking the RX/TX loops it samples from.
type Baseline struct {
	startedAt time.Time
	samples   atomic.Uint64

	rxBits atomic.Uint64
	txBits atomic.Uint64

	warmedUp atomic.Bool
}

// NewBaseline starts a baseline tracker anchored at now.
func NewBaseline(now time.Time) *Baseline {
	return &Baseline{startedAt: now}
}

func loadFloat(a *atomic.Uint64) float64   { return math.Float64frombits(a.Load()) }
func storeFloat(a *atomic.Uint64, v float64) { a.Store(math.Float64bits(v)) }

// Update folds one more (rxFPS, txFPS) observation into the baseline.
// Callers must invoke this at a fixed cadence (e.g. once per second) —
// the EWMA's effective time constant assumes it.
func (b *Baseline) Update(now time.Time, rxFPS, txFPS float64) {
	elapsed := now.Sub(b.startedAt)
	if elapsed < warmupPeriod {
		n := b.samples.Add(1)
		curRX, curTX := loadFloat(&b.rxBits), loadFloat(&b.txBits)
		storeFloat(&b.rxBits, (curRX*float64(n-1)+rxFPS)/float64(n))
		storeFloat(&b.txBits, (curTX*float64(n-1)+txFPS)/float64(n))
		return
	}
	b.warmedUp.Store(true)
	curRX, curTX := loadFloat(&b.rxBits), loadFloat(&b.txBits)
	storeFloat(&b.rxBits, curRX*(1-ewmaAlpha)+rxFPS*ewmaAlpha)
	storeFloat(&b.txBits, curTX*(1-ewmaAlpha)+txFPS*ewmaAlpha)
}

// Degraded reports whether the current FPS pair has fallen under half the
// established baseline. Always false during warm-up, to avoid false
// positives before the baseline means anything.
func (b *Baseline) Degraded(rxFPS, txFPS float64) bool {
	if !b.warmedUp.Load() {
		return false
	}
	baseRX, baseTX := loadFloat(&b.rxBits), loadFloat(&b.txBits)
	if baseRX == 0 || baseTX == 0 {
		return false
	}
	return rxFPS < baseRX*0.5 || txFPS < baseTX*0.5
}

// Counters is the small set of fault tallies the health score reacts to,
// read by whatever goroutine computes StatusResponse. Nothing in this
// module writes to the Server's Counters, so its Score sees zero fault
// counts and BusOffMonitorSupported false.
type Counters struct {
	BusOffEvents           atomic.Uint64
	BusOffMonitorSupported atomic.Bool
	USBTransferErrors      atomic.Uint64
	USBStalls              atomic.Uint64
	CANErrorFrames         atomic.Uint64
	CPUPercent             atomic.Uint32
	MemoryMB               atomic.Uint32
}

// Score computes the 0..100 health score §4.11 documents, grounded
// on original_source's health_score: bus-off zeroes the score outright;
// everything else is an independent point deduction.
func Score(c *Counters, baseline *Baseline, rxFPS, txFPS float64) uint8 {
	score := 100

	if c.BusOffEvents.Load() > 0 {
		return 0
	}
	if !c.BusOffMonitorSupported.Load() {
		score -= 5
	}

	usbErrors := c.USBTransferErrors.Load() + c.USBStalls.Load()
	switch {
	case usbErrors > 100:
		score -= 20
	case usbErrors > 10:
		score -= 10
	}

	canErrors := c.CANErrorFrames.Load()
	switch {
	case canErrors > 1000:
		score -= 30
	case canErrors > 100:
		score -= 15
	}

	if baseline.Degraded(rxFPS, txFPS) {
		score -= 10
	}

	cpu := c.CPUPercent.Load()
	switch {
	case cpu > 90:
		score -= 15
	case cpu > 70:
		score -= 10
	case cpu > 50:
		score -= 5
	}

	if c.MemoryMB.Load() > 1000 {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return uint8(score)
}
