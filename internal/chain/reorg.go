package chain

import (
	"bytes"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/block"
)

// MaxReorgDepth bounds how many blocks a single reorg may revert, a
// crash-recovery and resource-exhaustion backstop rather than a
// consensus rule.
const MaxReorgDepth = 1000

// collectBranch walks candidate's ancestry back to the block the
// active chain also holds at that height (the fork point), returning
// the branch in ascending height order (fork+1 ... candidate).
func (c *Chain) collectBranch(candidate *block.Block) ([]*block.Block, uint64, error) {
	var branch []*block.Block
	cur := candidate

	for {
		branch = append(branch, cur)
		if len(branch) > MaxReorgDepth {
			return nil, 0, fmt.Errorf("reorg: branch exceeds %d blocks", MaxReorgDepth)
		}

		if cur.Header.ID == c.genesisID {
			if cur.Hash != c.genesisHash {
				return nil, 0, fmt.Errorf("reorg: branch does not descend from genesis")
			}
			break
		}
		if mainBlock, ok := c.BlockAtHeight(cur.Header.ID - 1); ok && mainBlock.Hash == cur.Header.PreviousBlockHash {
			break
		}

		parent, err := c.blocks.GetBlock(cur.Header.PreviousBlockHash)
		if err != nil {
			return nil, 0, fmt.Errorf("reorg: load ancestor %s: %w", cur.Header.PreviousBlockHash, err)
		}
		cur = parent
	}

	forkHeight := branch[len(branch)-1].Header.ID
	for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
		branch[i], branch[j] = branch[j], branch[i]
	}
	return branch, forkHeight, nil
}

// branchWork sums each block's own presented routing work, the
// fork-choice weight §9 names: cumulative burn-fee work, not raw PoW
// difficulty.
func branchWork(blocks []*block.Block) uint64 {
	var total uint64
	for _, b := range blocks {
		total += b.RoutingWorkForCreator
	}
	return total
}

// reorg compares candidate's branch against the active chain and
// switches the tip if the new branch carries strictly more cumulative
// routing work, or ties and wins the lexicographically-smaller-hash
// tie-break that §9 leaves as an Open Question. Otherwise candidate is
// simply left stored as a known side-block and the active chain is
// untouched.
func (c *Chain) reorg(candidate *block.Block) error {
	newBranch, forkHeight, err := c.collectBranch(candidate)
	if err != nil {
		return err
	}

	var oldBranch []*block.Block
	for h := c.state.Height; h > forkHeight; h-- {
		blk, ok := c.BlockAtHeight(h)
		if !ok {
			return fmt.Errorf("reorg: missing active-chain block at height %d", h)
		}
		oldBranch = append(oldBranch, blk)
	}

	newWork, oldWork := branchWork(newBranch), branchWork(oldBranch)
	switch {
	case newWork < oldWork:
		return nil
	case newWork == oldWork && bytes.Compare(candidate.Hash[:], c.state.TipHash[:]) >= 0:
		return nil
	}

	if err := c.blocks.PutReorgCheckpoint(forkHeight); err != nil {
		return fmt.Errorf("reorg: write checkpoint: %w", err)
	}

	// Unwind the active chain's blocks above the fork point, tip first.
	for _, blk := range oldBranch {
		data, err := c.blocks.GetUndo(blk.Hash)
		if err != nil {
			return fmt.Errorf("reorg: load undo for %s: %w", blk.Hash, err)
		}
		undo, err := unmarshalUndo(data)
		if err != nil {
			return fmt.Errorf("reorg: unmarshal undo for %s: %w", blk.Hash, err)
		}
		if err := c.unwindBlock(blk, undo); err != nil {
			return fmt.Errorf("reorg: unwind %s: %w", blk.Hash, err)
		}
		if err := c.blocks.DeleteUndo(blk.Hash); err != nil {
			return fmt.Errorf("reorg: delete undo for %s: %w", blk.Hash, err)
		}
	}

	// Rewind in-memory tip state to the fork point before replaying the
	// new branch forward through the same extend-style path AddBlock
	// uses for the common case.
	forkBlock, ok := c.BlockAtHeight(forkHeight)
	if !ok {
		return fmt.Errorf("reorg: missing fork-point block at height %d", forkHeight)
	}
	c.tip = forkBlock
	c.state.Height = forkBlock.Header.ID
	c.state.TipHash = forkBlock.Hash
	c.state.Treasury = forkBlock.Header.Treasury
	c.state.TipTimestamp = forkBlock.Header.Timestamp
	c.state.CumulativeWork -= branchWork(oldBranch)
	c.utxos.SetTip(forkBlock.Header.ID)

	for _, blk := range newBranch {
		v, err := c.viewFor(blk)
		if err != nil {
			return fmt.Errorf("reorg: resolve parent for %d: %w", blk.Header.ID, err)
		}
		if err := blk.Validate(v); err != nil {
			return fmt.Errorf("reorg: validate block %d: %w", blk.Header.ID, err)
		}
		undo, err := c.windBlock(blk)
		if err != nil {
			return fmt.Errorf("reorg: wind block %d: %w", blk.Header.ID, err)
		}
		if err := c.commitUndo(blk, undo); err != nil {
			return fmt.Errorf("reorg: commit block %d: %w", blk.Header.ID, err)
		}
		c.setTip(blk)
	}

	return c.blocks.DeleteReorgCheckpoint()
}
