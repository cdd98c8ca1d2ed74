package block

import (
	"errors"
	"fmt"

	"github.com/saito-live/saito-chain/internal/burnfee"
	"github.com/saito-live/saito-chain/pkg/tx"
)

// Validation errors, returned in the order §4.8 checks them so a
// caller can short-circuit on the first failure.
var (
	ErrBurnFeeMismatch      = errors.New("burn fee does not match burnfee_for_next_block")
	ErrInsufficientWork     = errors.New("routing work for creator below routing_work_needed")
	ErrInvalidGoldenTicket  = errors.New("golden ticket solution invalid for previous difficulty")
	ErrBadMerkleRoot        = errors.New("merkle root mismatch")
	ErrZeroMerkleRoot       = errors.New("merkle root and header root both zero")
	ErrFeeTransactionHash   = errors.New("fee transaction hash does not match derived value")
	ErrDifficultyMismatch   = errors.New("difficulty does not match expected_difficulty")
	ErrATRMismatch          = errors.New("ATR triple does not match recomputed value")
	ErrMissingFeeTx         = errors.New("golden ticket present but no fee transaction found")
	ErrUnexpectedFeeTx      = errors.New("fee transaction present without a golden ticket")
	ErrGenesisTimestampLate = errors.New("block timestamp precedes genesis timestamp")
	ErrGenesisIDTooLow      = errors.New("block id precedes genesis id")
)

// Validate checks §4.8's block validation rules against chain, in the
// spec's order, short-circuiting on the first failure. b must already
// have GenerateMetadata run.
func (b *Block) Validate(chain ChainView) error {
	if b.Header.Timestamp < chain.GenesisTimestamp() {
		return ErrGenesisTimestampLate
	}
	if b.Header.ID < chain.GenesisID() {
		return ErrGenesisIDTooLow
	}

	prev, hasPrev := chain.PreviousBlock()
	if hasPrev {
		wantBurnFee := burnfee.ForNextBlock(prev.Header.BurnFee, b.Header.Timestamp, prev.Header.Timestamp)
		if b.Header.BurnFee != wantBurnFee {
			return fmt.Errorf("%w: have %d want %d", ErrBurnFeeMismatch, b.Header.BurnFee, wantBurnFee)
		}

		needed := burnfee.RoutingWorkNeeded(prev.Header.BurnFee, b.Header.Timestamp, prev.Header.Timestamp)
		if b.RoutingWorkForCreator < needed {
			return fmt.Errorf("%w: have %d need %d", ErrInsufficientWork, b.RoutingWorkForCreator, needed)
		}
	}

	var goldenTicket *tx.GoldenTicket
	if b.HasGoldenTicket {
		gt, err := tx.DecodeGoldenTicket(b.Transactions[b.GoldenTicketIndex].Message)
		if err != nil {
			return fmt.Errorf("decode golden ticket: %w", err)
		}
		goldenTicket = &gt
		if hasPrev && (gt.Target != prev.Hash || !isValidGoldenTicket(gt, prev.Header.Difficulty)) {
			return ErrInvalidGoldenTicket
		}
	}

	expectedRoot := b.generateMerkleRoot()
	if b.Header.MerkleRoot.IsZero() && expectedRoot.IsZero() {
		return ErrZeroMerkleRoot
	}
	if b.Header.MerkleRoot != expectedRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, expectedRoot)
	}

	dv, err := GenerateDataToValidate(b, chain)
	if err != nil {
		return fmt.Errorf("generate data to validate: %w", err)
	}

	if goldenTicket != nil {
		if !b.HasFeeTransaction {
			return ErrMissingFeeTx
		}
		candidateFeeTx := b.Transactions[b.FeeTransactionIndex]
		wantFeeTx, err := deriveFinalFeeTransaction(dv.FeeTransaction, b.Header.Creator)
		if err != nil {
			return fmt.Errorf("rederive fee transaction: %w", err)
		}
		if candidateFeeTx.HashForSignature != wantFeeTx.HashForSignature {
			return ErrFeeTransactionHash
		}
	} else if b.HasFeeTransaction {
		return ErrUnexpectedFeeTx
	}

	if dv.ExpectedDifficulty != b.Header.Difficulty {
		return fmt.Errorf("%w: have %d want %d", ErrDifficultyMismatch, b.Header.Difficulty, dv.ExpectedDifficulty)
	}

	if b.TotalRebroadcastSlips != dv.ATR.totalRebroadcastSlips ||
		b.TotalRebroadcastNolan != dv.ATR.totalRebroadcastNolan ||
		b.RebroadcastHash != dv.ATR.rebroadcastHash {
		return ErrATRMismatch
	}

	utxo := chain.UTXOSet()
	return parallelEach(len(b.Transactions), func(i int) error {
		t := b.Transactions[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
		if len(t.Inputs) > 0 {
			if err := t.ValidateAgainstUTXOSet(utxo); err != nil {
				return fmt.Errorf("tx %d: %w", i, err)
			}
		}
		return nil
	})
}
