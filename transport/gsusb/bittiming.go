package gsusb

import "fmt"

// bitTiming is the (prop_seg, phase_seg1, phase_seg2, sjw, brp) tuple sent
// to the device via breqBitTiming, yielding the requested bitrate for a
// given controller clock with an 87.5% sample point (80% at 800 kbit/s,
// where a bit is 10 time quanta long).
type bitTiming struct {
	propSeg, phaseSeg1, phaseSeg2, sjw, brp uint32
}

// bitTimingTable maps (clockHz, bitrate) to a bitTiming tuple. Unsupported
// pairs are a configuration error, never a guess.
var bitTimingTable = map[uint32]map[uint32]bitTiming{
	48_000_000: {
		10_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 300},
		20_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 150},
		50_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 60},
		100_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 30},
		125_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 24},
		250_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 12},
		500_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 6},
		800_000:  {propSeg: 1, phaseSeg1: 6, phaseSeg2: 2, sjw: 1, brp: 6},
		1_000_000: {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 3},
	},
	80_000_000: {
		10_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 500},
		20_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 250},
		50_000:   {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 100},
		100_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 50},
		125_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 40},
		250_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 20},
		500_000:  {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 10},
		800_000:  {propSeg: 1, phaseSeg1: 6, phaseSeg2: 2, sjw: 1, brp: 10},
		1_000_000: {propSeg: 1, phaseSeg1: 12, phaseSeg2: 2, sjw: 1, brp: 5},
	},
}

// lookupBitTiming returns the timing tuple for (clockHz, bitrate), or an
// error naming the unsupported pair.
func lookupBitTiming(clockHz, bitrate uint32) (bitTiming, error) {
	byRate, ok := bitTimingTable[clockHz]
	if !ok {
		return bitTiming{}, fmt.Errorf("gsusb: unsupported controller clock %d Hz", clockHz)
	}
	bt, ok := byRate[bitrate]
	if !ok {
		return bitTiming{}, fmt.Errorf("gsusb: unsupported bitrate %d at clock %d Hz", bitrate, clockHz)
	}
	return bt, nil
}
