package slip

import "fmt"

// State is a UTXO set entry's position in its monotonic lifecycle:
// unknown slips have never been seen, spendable slips became spendable
// at a recorded block id, and spent slips have been consumed by an
// input or retired by ATR.
type State struct {
	Known     bool
	Spendable bool
	SpentAt   bool
	BlockID   uint64
}

// Unknown reports a slip the UTXO set has never recorded.
var Unknown = State{}

// UTXOProvider is the read-only view a slip needs to validate itself
// against the current chain tip.
type UTXOProvider interface {
	// StateOf looks up the current ladder state for the given slip key.
	StateOf(key [Size]byte) State
	// CurrentBlockID returns the chain tip's block id.
	CurrentBlockID() uint64
}

// Validate reports whether the slip is presently spendable: its amount
// is non-zero, the UTXO set has it recorded spendable as of some block,
// and that block is not in the future relative to the chain tip.
func (s Slip) Validate(p UTXOProvider) error {
	if s.Amount == 0 {
		return fmt.Errorf("slip: zero amount")
	}
	st := p.StateOf(s.Key())
	if !st.Known || !st.Spendable || st.SpentAt {
		return fmt.Errorf("slip: not spendable")
	}
	if st.BlockID > p.CurrentBlockID() {
		return fmt.Errorf("slip: spendable-at block %d is ahead of tip %d", st.BlockID, p.CurrentBlockID())
	}
	return nil
}
