package staking

import (
	"github.com/saito-live/saito-chain/pkg/slip"
)

// QualifyingBlock carries the inputs OnChainReorganization needs from
// a block that has both a golden ticket and a fee transaction: the
// golden ticket's randomness (used to derive the staker-selection
// target) and the amounts needed to re-run a reset if one is
// triggered.
type QualifyingBlock struct {
	Random            [32]byte
	Treasury          uint64
	StakerDepositOuts []slip.Slip
}

// ReorgResult mirrors ResetResult: the UTXO-ladder transitions a
// caller must apply so on-disk state tracks the pool.
type ReorgResult struct {
	Spend   []slip.Slip
	Unspend []slip.Slip
	// PaidStaker is the staker slip moved between Stakers and Pending
	// by this block, if any.
	PaidStaker slip.Slip
	HasPayout  bool
}

// OnChainReorganization implements §4.6's roll-forward/roll-back
// integration. Every StakerDeposit output in the block is added to (or,
// rolling back, removed from) Deposits regardless of whether the block
// qualifies; qb is non-nil only when the block also carries a golden
// ticket and a fee transaction, in which case the winning staker is
// selected (forward) or restored (backward), triggering a table reset
// when the rotation runs dry.
func (p *Pool) OnChainReorganization(qb *QualifyingBlock, forward bool) ReorgResult {
	var result ReorgResult

	if qb == nil {
		return result
	}

	_, stakerR, _ := RoutingRandoms(qb.Random)

	if forward {
		for _, dep := range qb.StakerDepositOuts {
			p.AddDeposit(dep)
		}

		if len(p.Stakers) == 0 {
			reset := p.ResetStakerTable(qb.Treasury)
			result.Spend = append(result.Spend, reset.Spend...)
			result.Unspend = append(result.Unspend, reset.Unspend...)
		}

		if winner, ok := p.FindWinningStaker(stakerR); ok {
			p.RemoveStaker(winner)
			p.AddPending(winner)
			result.PaidStaker = winner
			result.HasPayout = true
		}

		if len(p.Stakers) == 0 {
			reset := p.ResetStakerTable(qb.Treasury)
			result.Spend = append(result.Spend, reset.Spend...)
			result.Unspend = append(result.Unspend, reset.Unspend...)
		}
		return result
	}

	// Roll back: inverse of the forward path. The caller is expected to
	// have recorded which staker was paid (via the forward ReorgResult)
	// since a reset is not invertible from state alone; RestorePayout
	// provides that inverse given the recorded winner.
	for _, dep := range qb.StakerDepositOuts {
		p.RemoveDeposit(dep)
	}
	return result
}

// RestorePayout undoes a single forward payout: moves paid from
// Pending back to Stakers (or Deposits, if it originated there).
func (p *Pool) RestorePayout(paid slip.Slip) {
	if !p.RemovePending(paid) {
		return
	}
	if paid.Type == slip.TypeStakerDeposit {
		p.AddDeposit(paid)
		return
	}
	p.AddStaker(paid)
}
