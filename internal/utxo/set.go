// Package utxo implements the mapping from slip-key to ladder state:
// unknown, spendable-at-block-B, spent. The set is the single
// authoritative view of which slips may currently be spent, and is
// mutated only by the blockchain's on-chain-reorganization routine.
package utxo

import "github.com/saito-live/saito-chain/pkg/slip"

// Set is the read/write surface a chain reorganization needs against
// the UTXO ladder. It also implements slip.UTXOProvider for read-only
// validation callers.
type Set interface {
	slip.UTXOProvider

	// MarkOutputSpendable moves a freshly created output from unknown
	// to spendable-at-bid. Used when winding a block onto the longest
	// chain.
	MarkOutputSpendable(s slip.Slip, bid uint64) error
	// UnmarkOutputSpendable is the inverse: moves a spendable output
	// back to unknown. Used when unwinding a block off the longest
	// chain.
	UnmarkOutputSpendable(s slip.Slip) error
	// MarkInputSpent moves a spendable slip to spent. Used when
	// winding a block whose inputs consume it.
	MarkInputSpent(s slip.Slip) error
	// UnmarkInputSpent is the inverse: moves a spent slip back to
	// spendable at the given block id. Used when unwinding.
	UnmarkInputSpent(s slip.Slip, bid uint64) error

	// SetTip records the chain tip block id used by StateOf's
	// future-spendability check.
	SetTip(bid uint64)
}
