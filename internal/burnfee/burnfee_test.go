package burnfee

import "testing"

func TestForNextBlock_SameInterval(t *testing.T) {
	// Δt == HEARTBEAT should leave burn fee unchanged.
	got := ForNextBlock(1_000_000, HeartbeatMillis, 0)
	if got < 999_000 || got > 1_001_000 {
		t.Errorf("ForNextBlock() = %d, want ~1000000", got)
	}
}

func TestForNextBlock_FasterBlocksLowerFee(t *testing.T) {
	// Blocks arriving faster than HEARTBEAT should lower the next fee:
	// sqrt(HEARTBEAT/Δt) < 1 when Δt > HEARTBEAT.
	got := ForNextBlock(1_000_000, 8000, 0)
	if got >= 1_000_000 {
		t.Errorf("ForNextBlock() = %d, want < 1000000 for a slow interval", got)
	}
}

func TestForNextBlock_SlowerBlocksRaiseFee(t *testing.T) {
	got := ForNextBlock(1_000_000, 500, 0)
	if got <= 1_000_000 {
		t.Errorf("ForNextBlock() = %d, want > 1000000 for a fast interval", got)
	}
}

func TestForNextBlock_ZeroDeltaClampsToOneMillisecond(t *testing.T) {
	got := ForNextBlock(1_000_000, 100, 100)
	if got == 0 {
		t.Error("ForNextBlock() with zero delta should not panic or zero out")
	}
}

func TestRoutingWorkNeeded_ScalesWithDelta(t *testing.T) {
	full := RoutingWorkNeeded(1_000_000, HeartbeatMillis, 0)
	if full != 1_000_000 {
		t.Errorf("RoutingWorkNeeded() at one heartbeat = %d, want 1000000", full)
	}

	half := RoutingWorkNeeded(1_000_000, HeartbeatMillis/2, 0)
	if half != 500_000 {
		t.Errorf("RoutingWorkNeeded() at half a heartbeat = %d, want 500000", half)
	}
}

func TestRoutingWorkNeeded_ClampedByMinFraction(t *testing.T) {
	// A tiny Δt would otherwise demand ~0 routing work; the floor of
	// prevBF * MinFractionNum/MinFractionDen should take over.
	got := RoutingWorkNeeded(1_000_000, 1, 0)
	want := uint64(1_000_000 * MinFractionNum / MinFractionDen)
	if got != want {
		t.Errorf("RoutingWorkNeeded() = %d, want floor %d", got, want)
	}
}
