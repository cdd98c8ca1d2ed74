// Package burnfee implements the two pure, integer-only functions that
// drive the chain's auction for block-production rights: the next
// block's required burn fee, and the routing work a creator must
// present to spend it.
package burnfee

import "math/big"

// HeartbeatMillis is the target spacing between blocks, in
// milliseconds. Burn fee and routing-work-needed are both defined
// relative to it.
const HeartbeatMillis = 2000

// MinFractionNum and MinFractionDen bound routing_work_needed below at
// half of the previous block's burn fee, so a creator can never
// satisfy the work requirement with a vanishingly small fraction of it
// even after a very short inter-block gap.
const (
	MinFractionNum = 1
	MinFractionDen = 2
)

const fixedPointBits = 64

// ForNextBlock computes burnfee_for_next_block: prevBF * sqrt(HEARTBEAT / Δt_ms),
// with Δt_ms = max(1, tNow - tPrev). Carried out in fixed-point integer
// arithmetic over a 64-bit fractional scale so the result is bit-for-bit
// reproducible across validators.
func ForNextBlock(prevBF, tNow, tPrev uint64) uint64 {
	deltaMs := deltaMillis(tNow, tPrev)

	// ratio = (HEARTBEAT / deltaMs) * 2^(2*fixedPointBits), so that its
	// integer square root is (sqrt(HEARTBEAT/deltaMs)) * 2^fixedPointBits.
	numerator := new(big.Int).Mul(big.NewInt(HeartbeatMillis), new(big.Int).Lsh(big.NewInt(1), 2*fixedPointBits))
	ratio := new(big.Int).Div(numerator, big.NewInt(int64(deltaMs)))

	root := new(big.Int).Sqrt(ratio) // sqrt(ratio) * 2^fixedPointBits

	result := new(big.Int).Mul(new(big.Int).SetUint64(prevBF), root)
	result.Rsh(result, fixedPointBits)
	return result.Uint64()
}

// RoutingWorkNeeded computes the minimum cumulative routing work a
// block creator must present: the integral of prevBF over Δt_ms,
// prevBF * Δt_ms / HEARTBEAT, clipped below by prevBF * MinFraction.
func RoutingWorkNeeded(prevBF, tNow, tPrev uint64) uint64 {
	deltaMs := deltaMillis(tNow, tPrev)

	needed := new(big.Int).Mul(new(big.Int).SetUint64(prevBF), big.NewInt(int64(deltaMs)))
	needed.Div(needed, big.NewInt(HeartbeatMillis))

	floor := new(big.Int).Mul(new(big.Int).SetUint64(prevBF), big.NewInt(MinFractionNum))
	floor.Div(floor, big.NewInt(MinFractionDen))

	if needed.Cmp(floor) < 0 {
		return floor.Uint64()
	}
	return needed.Uint64()
}

// deltaMillis is Δt_ms = max(1, tNow - tPrev): clamped below at one
// millisecond so a zero or negative gap never divides by zero or
// inverts the burn-fee auction's direction.
func deltaMillis(tNow, tPrev uint64) uint64 {
	if tNow <= tPrev {
		return 1
	}
	return tNow - tPrev
}
