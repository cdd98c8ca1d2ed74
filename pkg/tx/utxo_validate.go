package tx

import (
	"fmt"

	"github.com/saito-live/saito-chain/pkg/slip"
)

// ValidateAgainstUTXOSet checks rule 2: every input slip is currently
// spendable according to the set. Read-only; safe to call concurrently
// across a block's transactions.
func (tx *Transaction) ValidateAgainstUTXOSet(set slip.UTXOProvider) error {
	for i, in := range tx.Inputs {
		if err := in.Validate(set); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}
