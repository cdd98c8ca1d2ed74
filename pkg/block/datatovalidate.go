package block

import (
	"fmt"
	"math/big"

	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
)

// DataToValidate is the set of consensus values an honest producer and
// an honest validator both derive, independently, from the same
// (block, chain) pair. A block's embedded Fee transaction and
// Header.Difficulty must match what this recomputes.
type DataToValidate struct {
	ATR atrResult

	TotalFees         uint64
	GoldenTicket      *tx.GoldenTicket
	GoldenTicketIndex int
	FeeTransaction    *tx.Transaction
	FeeTransactionIdx int

	ExpectedDifficulty uint64
}

// GenerateDataToValidate derives §4.8's consensus values for candidate
// against chain. candidate must already have had GenerateMetadata run,
// so that TotalFees (pre-ATR) and per-tx CumulativeFees are populated.
func GenerateDataToValidate(candidate *Block, chain ChainView) (*DataToValidate, error) {
	atr, err := computeATR(candidate.Header.ID, chain)
	if err != nil {
		return nil, fmt.Errorf("compute ATR: %w", err)
	}

	dv := &DataToValidate{ATR: atr, GoldenTicketIndex: -1, FeeTransactionIdx: -1}
	dv.TotalFees = atr.totalRebroadcastFeesNolan

	var goldenTicketIdx = -1
	for i, t := range candidate.Transactions {
		switch t.Type {
		case tx.TypeGoldenTicket:
			goldenTicketIdx = i
		case tx.TypeFee:
			dv.FeeTransactionIdx = i
		default:
			dv.TotalFees += t.TotalFees
		}
	}
	dv.GoldenTicketIndex = goldenTicketIdx

	prev, hasPrev := chain.PreviousBlock()

	if goldenTicketIdx >= 0 {
		gt, err := tx.DecodeGoldenTicket(candidate.Transactions[goldenTicketIdx].Message)
		if err != nil {
			return nil, fmt.Errorf("decode golden ticket: %w", err)
		}
		dv.GoldenTicket = &gt

		feeTx, err := generateFeeTransaction(candidate, gt, dv.TotalFees, atr)
		if err != nil {
			return nil, fmt.Errorf("generate fee transaction: %w", err)
		}
		dv.FeeTransaction = feeTx
	}

	dv.ExpectedDifficulty = expectedDifficulty(prev, hasPrev, candidate.HasGoldenTicket)

	return dv, nil
}

// generateFeeTransaction implements §4.8 step 3: decides the winning
// transaction and router from the golden ticket's randomness, then
// builds the two-output miner/router Fee transaction. A third,
// staker-payout output is appended by the caller that integrates the
// staking pool (outside this pure function, per the design note in
// §4.6).
func generateFeeTransaction(candidate *Block, gt tx.GoldenTicket, totalFees uint64, atr atrResult) (*tx.Transaction, error) {
	if totalFees == 0 {
		return nil, fmt.Errorf("golden ticket present but total_fees is zero")
	}

	winningNolan := new(big.Int).Mod(new(big.Int).SetBytes(gt.Random[:]), new(big.Int).SetUint64(totalFees)).Uint64()

	var winningTx *tx.Transaction
	if winningNolan < atr.totalRebroadcastFeesNolan {
		if len(atr.rebroadcasts) == 0 {
			return nil, fmt.Errorf("winner class is ATR but no rebroadcasts were generated")
		}
		idx := new(big.Int).Mod(new(big.Int).SetBytes(gt.Random[:]), big.NewInt(int64(len(atr.rebroadcasts)))).Uint64()
		winningTx = atr.rebroadcasts[idx]
	} else {
		winningTx = pickWinningTx(candidate, winningNolan-atr.totalRebroadcastFeesNolan)
	}

	hashForRouting := crypto.Hash(gt.Random[:])
	var router [slip.PublicKeySize]byte
	if winningTx != nil {
		router = winningTx.GetWinningRoutingNode(hashForRouting)
	} else {
		router = gt.PublicKey
	}

	minerShare := totalFees / 2
	routerShare := totalFees - minerShare

	feeTx := tx.NewBuilder(tx.TypeFee, 0).
		AddOutput(slip.Slip{PublicKey: gt.PublicKey, Amount: minerShare, Type: slip.TypeMinerOutput, Ordinal: 0}).
		AddOutput(slip.Slip{PublicKey: router, Amount: routerShare, Type: slip.TypeRouterOutput, Ordinal: 1}).
		Build()
	return feeTx, nil
}

// deriveFinalFeeTransaction takes the draft fee transaction
// generateFeeTransaction produces and returns its final, embeddable
// form: every output UUID set to the draft's own hash-for-signature,
// and HashForSignature recomputed over that rewritten content. A
// producer assembling a candidate and a validator checking one later
// both call this over the same deterministically-derived draft, so
// they always agree — nothing here depends on the block's own hash,
// which is what would otherwise make the fee transaction's identity
// circular.
func deriveFinalFeeTransaction(draft *tx.Transaction, creatorPubKey [slip.PublicKeySize]byte) (*tx.Transaction, error) {
	working := *draft
	if err := working.GenerateMetadata(creatorPubKey); err != nil {
		return nil, fmt.Errorf("metadata for draft fee transaction: %w", err)
	}
	selfHash := working.HashForSignature

	final := working
	final.Outputs = make([]slip.Slip, len(working.Outputs))
	for i, out := range working.Outputs {
		out.UUID = selfHash
		final.Outputs[i] = out
	}
	if err := final.GenerateMetadata(creatorPubKey); err != nil {
		return nil, fmt.Errorf("metadata for final fee transaction: %w", err)
	}
	return &final, nil
}

// BuildFeeTransaction derives the Fee transaction a block producer
// must embed in a golden-ticket-bearing candidate. candidate should
// already carry every other transaction (including any ATR
// rebroadcasts from GenerateATRTransactions) and have had
// GenerateMetadata run, so HasGoldenTicket, GoldenTicketIndex and
// TotalFees are populated; the fee transaction itself must not be in
// candidate.Transactions yet. The caller appends the result to the
// transaction list and runs GenerateMetadata again to fold it into
// the block.
func BuildFeeTransaction(candidate *Block, id uint64, chain ChainView, creatorPubKey [slip.PublicKeySize]byte) (*tx.Transaction, error) {
	if !candidate.HasGoldenTicket {
		return nil, fmt.Errorf("candidate has no golden ticket transaction")
	}
	gt, err := tx.DecodeGoldenTicket(candidate.Transactions[candidate.GoldenTicketIndex].Message)
	if err != nil {
		return nil, fmt.Errorf("decode golden ticket: %w", err)
	}

	atr, err := computeATR(id, chain)
	if err != nil {
		return nil, fmt.Errorf("compute ATR: %w", err)
	}
	totalFees := atr.totalRebroadcastFeesNolan + candidate.TotalFees

	draft, err := generateFeeTransaction(candidate, gt, totalFees, atr)
	if err != nil {
		return nil, fmt.Errorf("generate fee transaction: %w", err)
	}
	return deriveFinalFeeTransaction(draft, creatorPubKey)
}

// pickWinningTx walks a block's transactions in cumulative-fee order
// and returns the first whose cumulative fees exceed threshold,
// falling back to the first transaction if none do.
func pickWinningTx(candidate *Block, threshold uint64) *tx.Transaction {
	for _, t := range candidate.Transactions {
		if t.CumulativeFees > threshold {
			return t
		}
	}
	if len(candidate.Transactions) > 0 {
		return candidate.Transactions[0]
	}
	return nil
}

// expectedDifficulty implements §4.8 step 4's step rule.
func expectedDifficulty(prev *Block, hasPrev bool, currentHasGT bool) uint64 {
	if !hasPrev {
		return 0
	}
	switch {
	case prev.HasGoldenTicket && currentHasGT:
		return prev.Header.Difficulty + 1
	case !prev.HasGoldenTicket && !currentHasGT:
		if prev.Header.Difficulty == 0 {
			return 0
		}
		return prev.Header.Difficulty - 1
	default:
		return prev.Header.Difficulty
	}
}

// isValidGoldenTicket checks §4.8's GT validity rule: the candidate
// hash's leading zero bits must meet or exceed the previous block's
// difficulty. This mirrors internal/consensus.IsValidSolution, kept
// local so block's validation has no dependency on the mining package.
func isValidGoldenTicket(gt tx.GoldenTicket, difficulty uint64) bool {
	msg := make([]byte, 0, len(gt.Random)+slip.PublicKeySize)
	msg = append(msg, gt.Random[:]...)
	msg = append(msg, gt.PublicKey[:]...)
	hash := crypto.Hash(msg)
	return leadingZeroBits(hash) >= difficulty
}

// leadingZeroBits counts the leading zero bits of a hash.
func leadingZeroBits(h [32]byte) uint64 {
	var count uint64
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}
