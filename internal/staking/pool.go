// Package staking implements the rotating staking pool that pays a
// third beneficiary — alongside the golden-ticket miner and winning
// router — out of qualifying blocks.
//
// The pool holds three vectors (deposits, stakers, pending) and moves
// slips between them as blocks are mined onto, or unwound from, the
// longest chain.
package staking

import (
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// GenesisPeriod is the number of blocks a reset's payout is amortized
// over: payout_per_block = treasury / GenesisPeriod.
const GenesisPeriod = 10

// Pool holds the three staking vectors. A Pool is not safe for
// concurrent use; callers serialize access the way the rest of the
// consensus core does, behind the chain actor's single-writer guard.
type Pool struct {
	Deposits []slip.Slip
	Stakers  []slip.Slip
	Pending  []slip.Slip
}

// NewPool returns an empty staking pool.
func NewPool() *Pool {
	return &Pool{}
}

// AddDeposit appends a newly-deposited stake.
func (p *Pool) AddDeposit(s slip.Slip) {
	p.Deposits = append(p.Deposits, s)
}

// AddStaker appends a slip directly into the active staker rotation.
func (p *Pool) AddStaker(s slip.Slip) {
	p.Stakers = append(p.Stakers, s)
}

// AddPending appends a slip to the pending (already-paid-out, awaiting
// the next reset) vector.
func (p *Pool) AddPending(s slip.Slip) {
	p.Pending = append(p.Pending, s)
}

// AddStakerWithNumber inserts s into Stakers at a deterministic
// position derived from r, so every validator reconstructs the same
// ordering: index = r mod (len(Stakers)+1).
func (p *Pool) AddStakerWithNumber(s slip.Slip, r types.Hash) {
	idx := int(modUint64(r, uint64(len(p.Stakers)+1)))
	p.Stakers = append(p.Stakers, slip.Slip{})
	copy(p.Stakers[idx+1:], p.Stakers[idx:])
	p.Stakers[idx] = s
}

// RemoveDeposit removes the first deposit matching s's key, reporting
// whether one was found.
func (p *Pool) RemoveDeposit(s slip.Slip) bool { return remove(&p.Deposits, s) }

// RemoveStaker removes the first staker matching s's key.
func (p *Pool) RemoveStaker(s slip.Slip) bool { return remove(&p.Stakers, s) }

// RemovePending removes the first pending slip matching s's key.
func (p *Pool) RemovePending(s slip.Slip) bool { return remove(&p.Pending, s) }

func remove(slips *[]slip.Slip, s slip.Slip) bool {
	key := s.Key()
	for i, existing := range *slips {
		if existing.Key() == key {
			*slips = append((*slips)[:i], (*slips)[i+1:]...)
			return true
		}
	}
	return false
}

// FindWinningStaker returns stakers[r mod len(Stakers)].
func (p *Pool) FindWinningStaker(r types.Hash) (slip.Slip, bool) {
	if len(p.Stakers) == 0 {
		return slip.Slip{}, false
	}
	idx := modUint64(r, uint64(len(p.Stakers)))
	return p.Stakers[idx], true
}

// PoolSnapshot captures the three staking vectors at a point in time.
// A caller about to trigger a mutation that is not otherwise invertible
// from state alone — a table reset, in particular — takes one first so
// it can later restore the exact prior split via Restore.
type PoolSnapshot struct {
	Deposits []slip.Slip
	Stakers  []slip.Slip
	Pending  []slip.Slip
}

// Snapshot returns a copy of the pool's three vectors.
func (p *Pool) Snapshot() PoolSnapshot {
	return PoolSnapshot{
		Deposits: append([]slip.Slip(nil), p.Deposits...),
		Stakers:  append([]slip.Slip(nil), p.Stakers...),
		Pending:  append([]slip.Slip(nil), p.Pending...),
	}
}

// Restore replaces the pool's three vectors with snap, undoing any
// mutation made since it was taken — including a table reset, which
// RestorePayout alone cannot invert.
func (p *Pool) Restore(snap PoolSnapshot) {
	p.Deposits = snap.Deposits
	p.Stakers = snap.Stakers
	p.Pending = snap.Pending
}

// ResetResult describes how a reset changes the on-disk UTXO ladder:
// Spend holds the pre-reset slips (deposits, pending, and previously
// active stakers) that are now superseded, and Unspend holds the
// rewritten StakerOutput slips that replace them, spendable as of the
// block driving the reset.
type ResetResult struct {
	Spend   []slip.Slip
	Unspend []slip.Slip
}

// ResetStakerTable implements §4.6's reset algorithm: merge deposits
// and pending into the active rotation, then grow every staker's
// amount in proportion to its stake, amortizing treasury over
// GenesisPeriod blocks. Integer-only; no floating point.
func (p *Pool) ResetStakerTable(treasury uint64) ResetResult {
	var result ResetResult

	merged := make([]slip.Slip, 0, len(p.Stakers)+len(p.Pending)+len(p.Deposits))
	merged = append(merged, p.Stakers...)
	merged = append(merged, p.Pending...)
	merged = append(merged, p.Deposits...)
	result.Spend = append(result.Spend, merged...)

	p.Pending = nil
	p.Deposits = nil

	if len(merged) == 0 {
		p.Stakers = nil
		return result
	}

	var totalStake uint64
	for _, s := range merged {
		totalStake += s.Amount
	}
	payoutPerBlock := treasury / GenesisPeriod
	avgStake := totalStake / uint64(len(merged))
	avgPayout := payoutPerBlock / uint64(len(merged))

	rewritten := make([]slip.Slip, len(merged))
	for i, s := range merged {
		if avgStake > 0 {
			s.Amount += (s.Amount * avgPayout) / avgStake
		}
		s.Type = slip.TypeStakerOutput
		rewritten[i] = s
	}

	p.Stakers = rewritten
	result.Unspend = append(result.Unspend, rewritten...)
	return result
}

// modUint64 reduces a 256-bit random value r modulo n.
func modUint64(r types.Hash, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	var acc uint64
	for _, b := range r[:] {
		acc = (acc<<8 | uint64(b)) % n
	}
	return acc
}

// RoutingRandoms derives the three hash-chain values §4.6 uses for a
// qualifying block: router_r1 = hash(random), staker_r = hash(router_r1),
// router_r2 = hash(staker_r).
func RoutingRandoms(random [32]byte) (routerR1, stakerR, routerR2 types.Hash) {
	routerR1 = crypto.Hash(random[:])
	stakerR = crypto.Hash(routerR1[:])
	routerR2 = crypto.Hash(stakerR[:])
	return
}
