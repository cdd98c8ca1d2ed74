// Package miner builds candidate blocks on top of the current chain
// tip: selecting pooled transactions, assembling ATR rebroadcasts,
// searching for a golden ticket against the tip's difficulty, and
// deriving the matching Fee transaction before sealing the block.
package miner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saito-live/saito-chain/internal/burnfee"
	"github.com/saito-live/saito-chain/internal/consensus"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
	"github.com/saito-live/saito-chain/pkg/types"
)

// MaxBlockTxs bounds how many pooled transactions a candidate embeds
// by default, leaving headroom for ATR rebroadcasts and the fee and
// golden-ticket transactions the producer appends itself.
const MaxBlockTxs = 2000

// MempoolSelector selects pooled transactions for block inclusion. A
// *mempool.Pool satisfies this directly.
type MempoolSelector interface {
	SelectForBlock(limit int) []*tx.Transaction
}

// Miner produces candidate blocks extending chain's current tip,
// signing with key and mining golden tickets against the tip's
// difficulty.
type Miner struct {
	key       *crypto.PrivateKey
	publicKey [slip.PublicKeySize]byte
	chain     block.ChainView
	pool      MempoolSelector

	// Threads controls how many goroutines search for a golden ticket
	// in parallel. 0 or 1 runs a single search loop.
	Threads int
	// MaxBlockTxs bounds pooled-transaction inclusion. 0 uses MaxBlockTxs.
	MaxBlockTxs int
}

// New creates a block producer signing candidates with key, reading
// chain and pool for assembly. chain is read-only from the miner's
// perspective — candidates are applied by calling Chain.AddBlock with
// ProduceBlock's result, not by this package.
func New(key *crypto.PrivateKey, chain block.ChainView, pool MempoolSelector) *Miner {
	var pub [slip.PublicKeySize]byte
	copy(pub[:], key.PublicKey())
	return &Miner{key: key, publicKey: pub, chain: chain, pool: pool}
}

// PublicKey returns the identity candidates are signed and credited
// under.
func (m *Miner) PublicKey() [slip.PublicKeySize]byte {
	return m.publicKey
}

// ProduceBlock builds, mines, and signs a new candidate using the
// current time. It does not apply the block to the chain — pass the
// result to Chain.AddBlock. Cancelling ctx stops an in-progress
// golden-ticket search; the candidate is still returned, just without
// a golden ticket or fee transaction.
func (m *Miner) ProduceBlock(ctx context.Context) (*block.Block, error) {
	return m.produceBlock(ctx, uint64(time.Now().UnixMilli()))
}

// ProduceBlockAt is ProduceBlock with an explicit timestamp, bumped
// forward to stay strictly after the parent's when necessary.
func (m *Miner) ProduceBlockAt(ctx context.Context, timestamp uint64) (*block.Block, error) {
	return m.produceBlock(ctx, timestamp)
}

func (m *Miner) produceBlock(ctx context.Context, timestamp uint64) (*block.Block, error) {
	prev, hasPrev := m.chain.PreviousBlock()

	var nextID uint64
	var prevHash types.Hash
	var prevBurnFee, prevTimestamp, prevDifficulty, treasury uint64
	var prevHasGT bool
	if hasPrev {
		nextID = prev.Header.ID + 1
		prevHash = prev.Hash
		prevBurnFee = prev.Header.BurnFee
		prevTimestamp = prev.Header.Timestamp
		prevDifficulty = prev.Header.Difficulty
		prevHasGT = prev.HasGoldenTicket
		treasury = prev.Header.Treasury
		if timestamp <= prevTimestamp {
			timestamp = prevTimestamp + 1
		}
	}

	limit := m.MaxBlockTxs
	if limit <= 0 {
		limit = MaxBlockTxs
	}
	var selected []*tx.Transaction
	if m.pool != nil {
		selected = m.pool.SelectForBlock(limit)
	}

	atrTxs, err := block.GenerateATRTransactions(nextID, m.chain)
	if err != nil {
		return nil, fmt.Errorf("generate ATR transactions: %w", err)
	}

	txs := make([]*tx.Transaction, 0, len(selected)+len(atrTxs)+2)
	txs = append(txs, selected...)
	txs = append(txs, atrTxs...)

	if hasPrev {
		gtTx, err := m.mineGoldenTicket(ctx, prevDifficulty, prevHash)
		if err != nil && !errors.Is(err, consensus.ErrNoSolutionFound) {
			return nil, fmt.Errorf("mine golden ticket: %w", err)
		}
		if gtTx != nil {
			txs = append(txs, gtTx)
		}
	}

	var burnFee uint64
	if hasPrev {
		burnFee = burnfee.ForNextBlock(prevBurnFee, timestamp, prevTimestamp)
	}

	header := block.Header{
		ID:                nextID,
		Timestamp:         timestamp,
		PreviousBlockHash: prevHash,
		Creator:           m.publicKey,
		Treasury:          treasury,
		BurnFee:           burnFee,
	}

	candidate := block.NewBlock(header, txs)
	candidate.FillMerkleRoot()
	if err := candidate.GenerateMetadata(m.publicKey); err != nil {
		return nil, fmt.Errorf("generate metadata: %w", err)
	}

	if candidate.HasGoldenTicket {
		feeTx, err := block.BuildFeeTransaction(candidate, nextID, m.chain, m.publicKey)
		if err != nil {
			return nil, fmt.Errorf("build fee transaction: %w", err)
		}
		txs = append(txs, feeTx)
		candidate = block.NewBlock(header, txs)
	}

	candidate.Header.Difficulty = expectedDifficulty(hasPrev, prevHasGT, prevDifficulty, candidate.Transactions)
	candidate.FillMerkleRoot()
	if err := candidate.GenerateMetadata(m.publicKey); err != nil {
		return nil, fmt.Errorf("generate final metadata: %w", err)
	}
	if err := candidate.FillRebroadcastCommitment(m.chain); err != nil {
		return nil, fmt.Errorf("fill rebroadcast commitment: %w", err)
	}

	if err := candidate.Header.Sign(m.key); err != nil {
		return nil, fmt.Errorf("sign header: %w", err)
	}

	return candidate, nil
}

// mineGoldenTicket searches for a golden ticket against difficulty
// and, if found before ctx is cancelled, wraps it in an unsigned
// GoldenTicket transaction ready for embedding. Returns (nil, nil) —
// not an error — when the search is cancelled without a solution, so
// a producer can still seal a block without one.
func (m *Miner) mineGoldenTicket(ctx context.Context, difficulty uint64, prevHash types.Hash) (*tx.Transaction, error) {
	solution, err := consensus.NewMiner(m.publicKey, m.Threads).Search(ctx, difficulty)
	if err != nil {
		if errors.Is(err, consensus.ErrNoSolutionFound) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}

	gt := tx.GoldenTicket{Random: solution.Random, PublicKey: m.publicKey, Target: prevHash}
	return tx.NewBuilder(tx.TypeGoldenTicket, 0).SetMessage(gt.Encode()).Build(), nil
}

// expectedDifficulty mirrors pkg/block's unexported rule of the same
// name: a block steps difficulty up, down, or holds it depending on
// whether this block and its parent carry a golden ticket. Duplicated
// here rather than exported from pkg/block because Validate already
// recomputes it independently — a producer and a validator agreeing
// on a three-line rule doesn't need a shared entry point.
func expectedDifficulty(hasPrev, prevHasGT bool, prevDifficulty uint64, txs []*tx.Transaction) uint64 {
	if !hasPrev {
		return 0
	}
	currentHasGT := false
	for _, t := range txs {
		if t.Type == tx.TypeGoldenTicket {
			currentHasGT = true
			break
		}
	}
	switch {
	case prevHasGT && currentHasGT:
		return prevDifficulty + 1
	case !prevHasGT && !currentHasGT:
		if prevDifficulty == 0 {
			return 0
		}
		return prevDifficulty - 1
	default:
		return prevDifficulty
	}
}
