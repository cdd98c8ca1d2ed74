package tx

import (
	"errors"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/crypto"
)

// Structural validation errors.
var (
	ErrInvalidSig        = errors.New("invalid signature")
	ErrInsufficientFunds = errors.New("inputs do not cover outputs")
	ErrBadHopSignature   = errors.New("routing hop signature invalid")
	ErrBadHopOrigin      = errors.New("first hop does not originate from the transaction owner")
)

// Validate checks the rules self-contained to a transaction: the
// owner's signature, the input/output balance (skipped for the
// feeless types, which are validated against block-level consensus
// values instead), and the routing path. It does not check UTXO
// spendability — see ValidateAgainstUTXOSet.
func (tx *Transaction) Validate() error {
	if err := tx.verifySignature(); err != nil {
		return err
	}
	if !tx.Type.feeless() && tx.TotalIn < tx.TotalOut {
		return fmt.Errorf("%w: total_in=%d total_out=%d", ErrInsufficientFunds, tx.TotalIn, tx.TotalOut)
	}
	return tx.ValidatePath()
}

// verifySignature checks the owner's signature over hash_for_signature.
// The signing key is the first input slip's owner (also the sole owner
// for single-input transactions); input-less transactions (VIP,
// genesis mints) carry no signature to check.
func (tx *Transaction) verifySignature() error {
	if len(tx.Inputs) == 0 {
		return nil
	}
	hash := tx.Hash()
	owner := tx.Inputs[0].PublicKey
	if !crypto.VerifySignature(hash[:], tx.Signature[:], owner[:]) {
		return ErrInvalidSig
	}
	return nil
}

// ValidatePath checks rule 6: each hop's signature verifies that
// hop[i].from signed over (prev_sig || hop[i].to), and the first hop
// originates from the transaction's owner.
func (tx *Transaction) ValidatePath() error {
	if len(tx.Path) == 0 {
		return nil
	}
	if tx.Path[0].From != tx.originPublicKey() {
		return ErrBadHopOrigin
	}

	prevSig := tx.Signature
	for i, hop := range tx.Path {
		msg := make([]byte, 0, 64+len(hop.To))
		msg = append(msg, prevSig[:]...)
		msg = append(msg, hop.To[:]...)
		h := crypto.Hash(msg)
		if !crypto.VerifySignature(h[:], hop.Sig[:], hop.From[:]) {
			return fmt.Errorf("hop %d: %w", i, ErrBadHopSignature)
		}
		prevSig = hop.Sig
	}
	return nil
}
