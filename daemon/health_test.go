package daemon

import (
	"testing"
	"time"
)

func TestBaselineStaysUnwarmedDuringWarmup(t *testing.T) {
	start := time.Unix(1000, 0)
	b := NewBaseline(start)
	b.Update(start.Add(time.Second), 500, 500)
	if b.Degraded(10, 10) {
		t.Fatal("Degraded() should be false during warm-up regardless of how low FPS is")
	}
}

func TestBaselineDetectsDegradationAfterWarmup(t *testing.T) {
	start := time.Unix(2000, 0)
	b := NewBaseline(start)
	now := start
	for i := 0; i < 12; i++ {
		now = now.Add(time.Second)
		b.Update(now, 500, 500)
	}
	if b.Degraded(500, 500) {
		t.Fatal("Degraded() should be false at the established baseline rate")
	}
	if !b.Degraded(100, 500) {
		t.Fatal("Degraded() should be true when RX FPS falls under half the baseline")
	}
}

func TestScoreBusOffZeroesImmediately(t *testing.T) {
	var c Counters
	c.BusOffEvents.Store(1)
	b := NewBaseline(time.Unix(0, 0))
	if got := Score(&c, b, 1000, 1000); got != 0 {
		t.Fatalf("Score() with a bus-off event = %d, want 0", got)
	}
}

func TestScoreDeductsForUnsupportedBusOffMonitoring(t *testing.T) {
	var c Counters
	b := NewBaseline(time.Unix(0, 0))
	if got := Score(&c, b, 1000, 1000); got != 95 {
		t.Fatalf("Score() with no bus-off monitor support = %d, want 95", got)
	}
}

func TestScoreDeductsForCANErrorBands(t *testing.T) {
	var c Counters
	c.BusOffMonitorSupported.Store(true)
	c.CANErrorFrames.Store(1500)
	b := NewBaseline(time.Unix(0, 0))
	if got := Score(&c, b, 1000, 1000); got != 70 {
		t.Fatalf("Score() with >1000 CAN errors = %d, want 70", got)
	}
}

func TestScoreStacksEveryDeduction(t *testing.T) {
	var c Counters
	c.CANErrorFrames.Store(2000)
	c.USBTransferErrors.Store(200)
	c.CPUPercent.Store(95)
	c.MemoryMB.Store(2000)

	start := time.Unix(0, 0)
	b := NewBaseline(start)
	now := start
	for i := 0; i < 12; i++ {
		now = now.Add(time.Second)
		b.Update(now, 1000, 1000)
	}

	// bus-off monitor unsupported (-5) + USB>100 (-20) + CAN>1000 (-30) +
	// degraded performance (-10) + CPU>90 (-15) + memory>1000 (-5) = -85.
	if got := Score(&c, b, 100, 100); got != 15 {
		t.Fatalf("Score() with every deduction stacked = %d, want 15", got)
	}
}
