// Package mempool holds transactions and candidate blocks awaiting
// inclusion in the chain, and decides when this node has accumulated
// enough routing work to bundle a block of its own.
package mempool

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/saito-live/saito-chain/internal/burnfee"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("transaction already in mempool")
	ErrConflict      = errors.New("transaction conflicts with existing mempool entry")
	ErrPoolFull      = errors.New("mempool is full")
	ErrValidation    = errors.New("transaction failed validation")
	ErrFeeTooLow     = errors.New("transaction fee below minimum")
)

// entry wraps a transaction with its fee and metadata.
type entry struct {
	tx      *tx.Transaction
	txHash  types.Hash
	fee     uint64
	feeRate float64 // fee per byte of SigningBytes.
}

// Pool holds unconfirmed transactions and candidate blocks received
// before this node has adopted their parent — the two queues
// original_source/src/mempool.rs's Mempool actor owns.
type Pool struct {
	mu sync.RWMutex

	txs        map[types.Hash]*entry   // txHash -> entry
	spends     map[[slip.Size]byte]types.Hash // input key -> txHash (conflict index)
	maxSize    int
	minFeeRate uint64 // Minimum fee rate in nolan per byte (0 = no minimum).
	policy     *Policy
	utxos      slip.UTXOProvider

	blocks []*block.Block // held blocks, keyed by hash on lookup
}

// New creates a mempool bounded by maxSize entries, validating
// incoming transactions against utxos and policy.
func New(utxos slip.UTXOProvider, maxSize int, policy *Policy) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Pool{
		txs:     make(map[types.Hash]*entry),
		spends:  make(map[[slip.Size]byte]types.Hash),
		maxSize: maxSize,
		policy:  policy,
		utxos:   utxos,
	}
}

// SetMinFeeRate sets the minimum fee rate (nolan per byte) for transaction acceptance.
func (p *Pool) SetMinFeeRate(rate uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minFeeRate = rate
}

// MinFeeRate returns the current minimum fee rate (nolan per byte).
func (p *Pool) MinFeeRate() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.minFeeRate
}

// Add validates and admits a transaction, returning its fee. Rejects
// duplicates, conflicting inputs, policy violations, and transactions
// that fail consensus validation against the live UTXO set.
func (p *Pool) Add(transaction *tx.Transaction) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.policy.Check(transaction); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	txHash := transaction.Hash()
	if _, exists := p.txs[txHash]; exists {
		return 0, ErrAlreadyExists
	}

	for _, in := range transaction.Inputs {
		if conflictHash, exists := p.spends[in.Key()]; exists {
			return 0, fmt.Errorf("%w: input already spent by %s", ErrConflict, conflictHash)
		}
	}

	if err := transaction.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := transaction.ValidateAgainstUTXOSet(p.utxos); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var zeroKey [slip.PublicKeySize]byte
	working := *transaction
	if err := working.GenerateMetadata(zeroKey); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fee := working.TotalFees

	sigBytes := len(transaction.SigningBytes())
	var feeRate float64
	if sigBytes > 0 {
		feeRate = float64(fee) / float64(sigBytes)
	}
	if p.minFeeRate > 0 {
		requiredFee := p.minFeeRate * uint64(sigBytes)
		if fee < requiredFee {
			return 0, fmt.Errorf("%w: got %d, need %d (%d bytes x %d rate)", ErrFeeTooLow, fee, requiredFee, sigBytes, p.minFeeRate)
		}
	}

	if len(p.txs) >= p.maxSize {
		lowestHash, lowestRate := p.findLowestFeeRate()
		if feeRate <= lowestRate {
			return 0, ErrPoolFull
		}
		p.removeLocked(lowestHash)
	}

	p.txs[txHash] = &entry{tx: transaction, txHash: txHash, fee: fee, feeRate: feeRate}
	for _, in := range transaction.Inputs {
		p.spends[in.Key()] = txHash
	}
	return fee, nil
}

// Remove removes a transaction from the mempool by hash.
func (p *Pool) Remove(txHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash types.Hash) {
	e, exists := p.txs[txHash]
	if !exists {
		return
	}
	for _, in := range e.tx.Inputs {
		delete(p.spends, in.Key())
	}
	delete(p.txs, txHash)
}

// RemoveConfirmed removes every transaction that a newly adopted block included.
func (p *Pool) RemoveConfirmed(transactions []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range transactions {
		p.removeLocked(t.Hash())
	}
}

// Has checks if a transaction exists in the mempool.
func (p *Pool) Has(txHash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[txHash]
	return exists
}

// Get retrieves a transaction from the mempool.
func (p *Pool) Get(txHash types.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}
	return e.tx
}

// GetFee returns the fee for a transaction in the mempool (0 if not found).
func (p *Pool) GetFee(txHash types.Hash) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return 0
	}
	return e.fee
}

// Count returns the number of transactions in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Hashes returns the hashes of all transactions in the mempool.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hashes := make([]types.Hash, 0, len(p.txs))
	for h := range p.txs {
		hashes = append(hashes, h)
	}
	return hashes
}

func (p *Pool) findLowestFeeRate() (types.Hash, float64) {
	var lowestHash types.Hash
	lowestRate := math.MaxFloat64
	for h, e := range p.txs {
		if e.feeRate < lowestRate {
			lowestRate = e.feeRate
			lowestHash = h
		}
	}
	return lowestHash, lowestRate
}

// SelectForBlock returns up to limit transactions ordered by fee rate,
// highest first — the order a block producer folds them into a
// candidate's transaction list.
func (p *Pool) SelectForBlock(limit int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.txs))
	for _, e := range p.txs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].feeRate > entries[j].feeRate
	})

	if limit > len(entries) || limit <= 0 {
		limit = len(entries)
	}
	result := make([]*tx.Transaction, limit)
	for i := 0; i < limit; i++ {
		result[i] = entries[i].tx
	}
	return result
}

// AddBlock holds a block this node has received but not yet adopted —
// typically because its parent has not arrived yet. Returns false if
// the block's hash is already held.
func (p *Pool) AddBlock(blk *block.Block) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, held := range p.blocks {
		if held.Hash == blk.Hash {
			return false
		}
	}
	p.blocks = append(p.blocks, blk)
	return true
}

// GetBlock removes and returns a held block by hash.
func (p *Pool) GetBlock(hash types.Hash) (*block.Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, held := range p.blocks {
		if held.Hash == hash {
			p.blocks = append(p.blocks[:i], p.blocks[i+1:]...)
			return held, true
		}
	}
	return nil, false
}

// CanBundleBlock reports whether the routing work the pooled
// transactions would contribute to creatorPubKey already meets
// routing_work_needed for a block built on top of a tip with the
// given burn fee and timestamp — the resolution of §9's
// can_bundle_block Open Question: the reference implementation's
// version always returns true, but the real gate is the same
// work-auction threshold blocks are validated against.
func (p *Pool) CanBundleBlock(creatorPubKey [slip.PublicKeySize]byte, tipBurnFee, now, tipTimestamp uint64) bool {
	needed := burnfee.RoutingWorkNeeded(tipBurnFee, now, tipTimestamp)
	if needed == 0 {
		return true
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var accumulated uint64
	for _, e := range p.txs {
		accumulated += e.tx.RoutingWorkFor(creatorPubKey)
		if accumulated >= needed {
			return true
		}
	}
	return false
}
