package chain

import (
	"encoding/json"
	"fmt"

	"github.com/saito-live/saito-chain/internal/staking"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
)

// ladderEntry pairs a slip with the ladder block id it carried before
// the mutation being undone, so a rollback can restore it exactly.
type ladderEntry struct {
	Slip    slip.Slip
	BlockID uint64
}

// blockUndo carries everything unwindBlock needs to invert windBlock:
// every ladder transition windBlock made, plus the staking-pool
// bookkeeping (deposits registered, staker paid) it triggered.
type blockUndo struct {
	CreatedOutputs []slip.Slip   // MarkOutputSpendable(s, id) -> undo via UnmarkOutputSpendable
	SpentInputs    []ladderEntry // MarkInputSpent(s) -> undo via UnmarkInputSpent(s, BlockID)
	RetiredATR     []ladderEntry // source outputs retired by ATR -> undo via UnmarkInputSpent(s, BlockID)
	StakingRetired []ladderEntry // staking reset's Spend list -> undo via MarkOutputSpendable(s, BlockID)
	StakingAdded   []slip.Slip   // staking reset's Unspend list -> undo via UnmarkOutputSpendable
	DepositsAdded  []slip.Slip   // StakerDeposit outputs registered with the pool -> undo via pool.RemoveDeposit
	PaidStaker     slip.Slip     // staker moved Stakers -> Pending by this block's payout
	HadPayout      bool

	// StakingSnapshot is the pool's Deposits/Stakers/Pending vectors
	// taken right before this block's reorg payout (and any table
	// reset it triggers), set whenever the candidate qualifies. A
	// reset rewrites all three vectors in a way RestorePayout alone
	// cannot invert, so unwindBlock restores this snapshot wholesale
	// instead of trying to replay the reset backward.
	StakingSnapshot *staking.PoolSnapshot
}

func (u *blockUndo) marshal() ([]byte, error) { return json.Marshal(u) }

func unmarshalUndo(data []byte) (*blockUndo, error) {
	var u blockUndo
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// windBlock applies candidate's transactions to the UTXO ladder,
// retires any source outputs its embedded ATR transactions replace,
// and folds its staking-relevant outputs into the pool, returning the
// undo data needed to invert every one of those steps.
func (c *Chain) windBlock(candidate *block.Block) (*blockUndo, error) {
	undo := &blockUndo{}

	for _, t := range candidate.Transactions {
		for _, in := range t.Inputs {
			st := c.utxos.StateOf(in.Key())
			if err := c.utxos.MarkInputSpent(in); err != nil {
				return nil, fmt.Errorf("spend input: %w", err)
			}
			undo.SpentInputs = append(undo.SpentInputs, ladderEntry{Slip: in, BlockID: st.BlockID})
		}
		for _, out := range t.Outputs {
			if err := c.utxos.MarkOutputSpendable(out, candidate.Header.ID); err != nil {
				return nil, fmt.Errorf("create output: %w", err)
			}
			undo.CreatedOutputs = append(undo.CreatedOutputs, out)

			if out.Type == slip.TypeStakerDeposit {
				c.staking.AddDeposit(out)
				undo.DepositsAdded = append(undo.DepositsAdded, out)
			}
		}
	}

	retired, err := c.retireATRSources(candidate)
	if err != nil {
		return nil, err
	}
	undo.RetiredATR = retired

	if qb := c.qualifyingBlock(candidate); qb != nil {
		snap := c.staking.Snapshot()
		undo.StakingSnapshot = &snap

		result := c.staking.OnChainReorganization(qb, true)
		for _, s := range result.Spend {
			st := c.utxos.StateOf(s.Key())
			if err := c.utxos.UnmarkOutputSpendable(s); err != nil {
				return nil, fmt.Errorf("retire staking slip: %w", err)
			}
			undo.StakingRetired = append(undo.StakingRetired, ladderEntry{Slip: s, BlockID: st.BlockID})
		}
		for _, s := range result.Unspend {
			if err := c.utxos.MarkOutputSpendable(s, candidate.Header.ID); err != nil {
				return nil, fmt.Errorf("add staking slip: %w", err)
			}
			undo.StakingAdded = append(undo.StakingAdded, s)
		}
		if result.HasPayout {
			undo.PaidStaker = result.PaidStaker
			undo.HadPayout = true
			c.stakerPayouts[candidate.Hash] = result.PaidStaker
		}
	}

	return undo, nil
}

// unwindBlock inverts windBlock using the undo data recorded when it
// was wound, in reverse order.
func (c *Chain) unwindBlock(candidate *block.Block, undo *blockUndo) error {
	if undo.HadPayout {
		delete(c.stakerPayouts, candidate.Hash)
	}
	if undo.StakingSnapshot != nil {
		c.staking.Restore(*undo.StakingSnapshot)
	}
	for _, s := range undo.StakingAdded {
		if err := c.utxos.UnmarkOutputSpendable(s); err != nil {
			return fmt.Errorf("undo staking add: %w", err)
		}
	}
	for i := len(undo.StakingRetired) - 1; i >= 0; i-- {
		e := undo.StakingRetired[i]
		if err := c.utxos.MarkOutputSpendable(e.Slip, e.BlockID); err != nil {
			return fmt.Errorf("undo staking retire: %w", err)
		}
	}
	for i := len(undo.DepositsAdded) - 1; i >= 0; i-- {
		c.staking.RemoveDeposit(undo.DepositsAdded[i])
	}
	for i := len(undo.RetiredATR) - 1; i >= 0; i-- {
		e := undo.RetiredATR[i]
		if err := c.utxos.UnmarkInputSpent(e.Slip, e.BlockID); err != nil {
			return fmt.Errorf("undo ATR retire: %w", err)
		}
	}
	for i := len(undo.CreatedOutputs) - 1; i >= 0; i-- {
		if err := c.utxos.UnmarkOutputSpendable(undo.CreatedOutputs[i]); err != nil {
			return fmt.Errorf("undo create output: %w", err)
		}
	}
	for i := len(undo.SpentInputs) - 1; i >= 0; i-- {
		e := undo.SpentInputs[i]
		if err := c.utxos.UnmarkInputSpent(e.Slip, e.BlockID); err != nil {
			return fmt.Errorf("undo spend input: %w", err)
		}
	}
	return nil
}

// retireATRSources marks spent every output of the block ATRLag
// heights back that is still spendable, mirroring pkg/block's own ATR
// pass. §4.7's rebroadcast/dust split decides amounts, but either way
// the source output itself stops being independently spendable —
// whether it was reissued as a smaller ATR slip or its full value was
// collected as a fee. This duplicates the ChainView walk pkg/block
// runs internally (its atrResult fields are unexported) rather than
// having pkg/block import internal/chain.
func (c *Chain) retireATRSources(candidate *block.Block) ([]ladderEntry, error) {
	if candidate.Header.ID <= block.ATRLag {
		return nil, nil
	}
	source, ok := c.BlockAtHeight(candidate.Header.ID - block.ATRLag)
	if !ok {
		return nil, nil
	}

	var retired []ladderEntry
	for _, t := range source.Transactions {
		for _, out := range t.Outputs {
			if err := out.Validate(c.utxos); err != nil {
				continue
			}
			st := c.utxos.StateOf(out.Key())
			if err := c.utxos.MarkInputSpent(out); err != nil {
				return nil, fmt.Errorf("retire ATR source: %w", err)
			}
			retired = append(retired, ladderEntry{Slip: out, BlockID: st.BlockID})
		}
	}
	return retired, nil
}

// qualifyingBlock builds the staking pool's per-block input for a
// block that carries both a golden ticket and a fee transaction —
// §4.6's payout and reset only fire on qualifying blocks. Deposit
// registration happens unconditionally in windBlock's own per-output
// loop, so StakerDepositOuts is left empty here; it exists on
// staking.QualifyingBlock for staking.Pool's own rollback symmetry,
// which this chain does not use (unwindBlock reverses deposits via
// DepositsAdded directly).
func (c *Chain) qualifyingBlock(candidate *block.Block) *staking.QualifyingBlock {
	if !candidate.HasGoldenTicket || !candidate.HasFeeTransaction {
		return nil
	}
	gt, err := tx.DecodeGoldenTicket(candidate.Transactions[candidate.GoldenTicketIndex].Message)
	if err != nil {
		return nil
	}
	return &staking.QualifyingBlock{
		Random:   gt.Random,
		Treasury: candidate.Header.Treasury,
	}
}
