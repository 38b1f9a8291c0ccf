package store

import "math"

// deriveDataRateBPS implements §4.2's data rate formula: given the byte
// counter at two samples dt seconds apart, returns the bits-per-second
// rate, clamping negative deltas (counter resets) to zero. Returns nil
// if dt <= 0.
func deriveDataRateBPS(prevBytes, nowBytes int64, dtSeconds float64) *int64 {
	if dtSeconds <= 0 {
		return nil
	}
	delta := nowBytes - prevBytes
	if delta < 0 {
		delta = 0
	}
	bits := float64(delta) * 8
	rate := int64(math.Floor(bits / dtSeconds))
	return &rate
}

// derivePacketLoss implements §4.2's packet loss formula:
// loss = 1 - clamp01(dRx/dTx) when dTx != 0, else 0.
func derivePacketLoss(dTx, dRx int64) *float64 {
	if dTx == 0 {
		zero := 0.0
		return &zero
	}
	ratio := float64(dRx) / float64(dTx)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	loss := math.Round((1-ratio)*1e5) / 1e5 // 5 decimal places
	return &loss
}

// deriveLinkDelay implements §4.2's one-way delay formula.
func deriveLinkDelay(fullDelay, srcCtrlDelay, dstCtrlDelay float64) float64 {
	return fullDelay - 0.5*(srcCtrlDelay+dstCtrlDelay)
}

// DeriveLinkDelay is the exported form of deriveLinkDelay, used by the
// Delay sensor outside this package.
func DeriveLinkDelay(fullDelay, srcCtrlDelay, dstCtrlDelay float64) float64 {
	return deriveLinkDelay(fullDelay, srcCtrlDelay, dstCtrlDelay)
}

// clampNonNegative clamps a counter delta to zero (§3 invariant: rate
// derivations must clamp negative deltas rather than go negative).
func clampNonNegative(delta int64) int64 {
	if delta < 0 {
		return 0
	}
	return delta
}
