// Package chain implements the blockring: the single-writer owner of
// the block index, the UTXO ladder, and the staking pool. It is the
// one place pkg/block's pure validation logic is wired against live,
// mutable chain state.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/saito-live/saito-chain/internal/staking"
	"github.com/saito-live/saito-chain/internal/storage"
	"github.com/saito-live/saito-chain/internal/utxo"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Sentinel errors, checked with errors.Is at call sites the way the
// rest of the consensus core reports its failures.
var (
	ErrNotInitialized = errors.New("chain: not initialized from genesis")
	ErrBlockKnown     = errors.New("chain: block already known")
	ErrUnknownParent  = errors.New("chain: parent block not found")
)

// Chain is the blockring: it persists blocks, tracks the UTXO ladder
// and staking pool, and decides whether an incoming block extends the
// current tip, opens a fork, or triggers a reorg.
//
// Chain is not safe for concurrent use by multiple writers; callers
// serialize through AddBlock the way spec.md §5 expects every
// cross-actor mutation to go through a single owning goroutine.
type Chain struct {
	mu sync.RWMutex

	blocks  *BlockStore
	utxos   utxo.Set
	staking *staking.Pool

	state State

	genesisHash      types.Hash
	genesisTimestamp uint64
	genesisID        uint64

	tip *block.Block

	// stakerPayouts records, per block hash, the staker slip that
	// block's golden-ticket payout moved from Stakers to Pending. The
	// pool-vector rollback itself goes through blockUndo's
	// StakingSnapshot; this map only tracks which block paid whom.
	stakerPayouts map[types.Hash]slip.Slip
}

// New creates a chain over db, utxos, and pool. Call InitFromGenesis
// (fresh chain) or LoadTip (restart) before accepting blocks.
func New(db storage.DB, utxos utxo.Set, pool *staking.Pool) *Chain {
	return &Chain{
		blocks:        NewBlockStore(db),
		utxos:         utxos,
		staking:       pool,
		stakerPayouts: make(map[types.Hash]slip.Slip),
	}
}

// LoadTip restores in-memory chain state (tip block, genesis
// coordinates, cumulative work) from a previously persisted
// BlockStore, for restart without replaying from genesis.
func (c *Chain) LoadTip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tipHash, height, treasury, err := c.blocks.GetTip()
	if err != nil {
		return fmt.Errorf("load tip: %w", err)
	}
	if tipHash.IsZero() {
		return ErrNotInitialized
	}

	tip, err := c.blocks.GetBlock(tipHash)
	if err != nil {
		return fmt.Errorf("load tip block: %w", err)
	}

	genesis, err := c.blocks.GetBlockByHeight(0)
	if err != nil {
		return fmt.Errorf("load genesis block: %w", err)
	}

	c.tip = tip
	c.genesisHash = genesis.Hash
	c.genesisTimestamp = genesis.Header.Timestamp
	c.genesisID = genesis.Header.ID
	c.state = State{
		Height:         height,
		TipHash:        tipHash,
		Treasury:       treasury,
		CumulativeWork: c.blocks.GetCumulativeWork(),
		TipTimestamp:   tip.Header.Timestamp,
	}
	c.utxos.SetTip(height)
	return nil
}

// --- pkg/block.ChainView, as seen from the current tip ---

// PreviousBlock implements block.ChainView by returning the current
// tip. Validating a candidate that extends a different parent (a
// fork, or a block being replayed during a reorg) goes through
// viewFor instead.
func (c *Chain) PreviousBlock() (*block.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return nil, false
	}
	return c.tip, true
}

// BlockAtHeight returns the block presently indexed at id on the
// active chain, regardless of which parent PreviousBlock reports.
func (c *Chain) BlockAtHeight(id uint64) (*block.Block, bool) {
	blk, err := c.blocks.GetBlockByHeight(id)
	if err != nil {
		return nil, false
	}
	return blk, true
}

// UTXOSet exposes the ladder's read-only view for slip validation.
func (c *Chain) UTXOSet() slip.UTXOProvider {
	return c.utxos
}

func (c *Chain) GenesisTimestamp() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genesisTimestamp
}

func (c *Chain) GenesisID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genesisID
}

// Tip returns the current tip block and chain state, and whether the
// chain has been initialized yet.
func (c *Chain) Tip() (*block.Block, State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return nil, State{}, false
	}
	return c.tip, c.state, true
}

// GetBlock looks up a block by hash regardless of which chain it sits
// on — used by reorg to walk a forking branch back to its ancestor.
func (c *Chain) GetBlock(hash types.Hash) (*block.Block, error) {
	return c.blocks.GetBlock(hash)
}

// view is a pkg/block.ChainView anchored at a specific parent, rather
// than at whatever the current tip happens to be. Every candidate —
// tip-extending, forking, or being replayed during a reorg — is
// validated through one of these so Validate always sees the parent
// it actually declares.
type view struct {
	c    *Chain
	prev *block.Block
	has  bool
}

func (v *view) PreviousBlock() (*block.Block, bool)          { return v.prev, v.has }
func (v *view) BlockAtHeight(id uint64) (*block.Block, bool) { return v.c.BlockAtHeight(id) }
func (v *view) UTXOSet() slip.UTXOProvider                   { return v.c.utxos }
func (v *view) GenesisTimestamp() uint64                     { return v.c.genesisTimestamp }
func (v *view) GenesisID() uint64                            { return v.c.genesisID }

// viewFor resolves candidate's declared parent by hash and returns the
// ChainView it must be validated and applied against.
func (c *Chain) viewFor(candidate *block.Block) (*view, error) {
	if candidate.Header.ID == c.genesisID {
		return &view{c: c}, nil
	}
	parent, err := c.blocks.GetBlock(candidate.Header.PreviousBlockHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParent, candidate.Header.PreviousBlockHash)
	}
	return &view{c: c, prev: parent, has: true}, nil
}

// AddBlock validates candidate against its declared parent and
// integrates it: extending the tip directly if its parent is the
// current tip, or triggering Reorg's fork-choice comparison otherwise.
// candidate must already have had GenerateMetadata run.
func (c *Chain) AddBlock(candidate *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tip == nil {
		return ErrNotInitialized
	}
	if known, _ := c.blocks.HasBlock(candidate.Hash); known {
		return ErrBlockKnown
	}

	v, err := c.viewFor(candidate)
	if err != nil {
		return err
	}
	if err := candidate.Validate(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.blocks.StoreBlock(candidate); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if candidate.Header.PreviousBlockHash == c.tip.Hash {
		return c.extend(candidate)
	}
	return c.reorg(candidate)
}

// extend winds candidate directly onto the current tip: the common
// case, and the only path genesis-adjacent blocks take.
func (c *Chain) extend(candidate *block.Block) error {
	undo, err := c.windBlock(candidate)
	if err != nil {
		return fmt.Errorf("wind block %d: %w", candidate.Header.ID, err)
	}
	if err := c.commitUndo(candidate, undo); err != nil {
		return err
	}
	c.setTip(candidate)
	return nil
}

func (c *Chain) commitUndo(blk *block.Block, undo *blockUndo) error {
	data, err := undo.marshal()
	if err != nil {
		return fmt.Errorf("marshal undo: %w", err)
	}
	if err := c.blocks.PutUndo(blk.Hash, data); err != nil {
		return fmt.Errorf("store undo: %w", err)
	}
	if err := c.blocks.PutBlock(blk); err != nil {
		return fmt.Errorf("index block: %w", err)
	}
	return nil
}

// setTip updates in-memory and persisted tip state after blk has been
// wound onto the active chain.
func (c *Chain) setTip(blk *block.Block) {
	c.state.Height = blk.Header.ID
	c.state.TipHash = blk.Hash
	c.state.Treasury = blk.Header.Treasury
	c.state.CumulativeWork += blk.RoutingWorkForCreator
	c.state.TipTimestamp = blk.Header.Timestamp
	c.tip = blk
	c.utxos.SetTip(blk.Header.ID)

	c.blocks.SetTip(blk.Hash, blk.Header.ID, blk.Header.Treasury)
	c.blocks.SetCumulativeWork(c.state.CumulativeWork)
}
