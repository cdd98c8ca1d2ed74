package chain

import "github.com/saito-live/saito-chain/pkg/types"

// State holds the current chain tip state.
type State struct {
	Height         uint64
	TipHash        types.Hash
	Treasury       uint64 // Running balance the staking pool and fee/ATR payouts draw from.
	CumulativeWork uint64 // Sum of routing work presented by every block on this chain.
	TipTimestamp   uint64
}

// IsGenesis returns true if no blocks have been processed yet.
func (s *State) IsGenesis() bool {
	return s.Height == 0 && s.TipHash.IsZero()
}
