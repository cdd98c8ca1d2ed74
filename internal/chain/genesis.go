package chain

import (
	"fmt"

	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
)

// GenesisVIPCount and GenesisVIPAmount fix §8 Scenario 1's genesis
// allocation: ten VIP outputs of 100,000 nolan, minted to the genesis
// creator's own key.
const (
	GenesisVIPCount  = 10
	GenesisVIPAmount = 100_000
)

// CreateGenesisBlock builds block id 0: a single VIP transaction
// minting GenesisVIPCount outputs of GenesisVIPAmount nolan each,
// addressed to creatorPubKey. Treasury seeds the staking pool's reward
// reserve (§4.6); burn-fee and difficulty both start at zero since
// there is no previous block to measure against.
func CreateGenesisBlock(creatorPubKey [slip.PublicKeySize]byte, timestamp uint64, treasury uint64) (*block.Block, error) {
	vip := tx.NewBuilder(tx.TypeVIP, timestamp)
	for i := 0; i < GenesisVIPCount; i++ {
		vip.AddOutput(slip.Slip{
			PublicKey: creatorPubKey,
			Amount:    GenesisVIPAmount,
			Type:      slip.TypeVIP,
			Ordinal:   uint8(i),
		})
	}

	header := block.Header{
		ID:        0,
		Timestamp: timestamp,
		Creator:   creatorPubKey,
		Treasury:  treasury,
	}
	genesis := block.NewBlock(header, []*tx.Transaction{vip.Build()})
	genesis.FillMerkleRoot()
	if err := genesis.GenerateMetadata(creatorPubKey); err != nil {
		return nil, fmt.Errorf("genesis metadata: %w", err)
	}
	return genesis, nil
}

// InitFromGenesis stores genesis as block 0, marks its outputs
// spendable, and seeds the chain's tip state. It is an error to call
// this on a chain that already has a tip.
func (c *Chain) InitFromGenesis(genesis *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tip != nil {
		return fmt.Errorf("chain already initialized at height %d", c.state.Height)
	}

	if err := c.blocks.PutBlock(genesis); err != nil {
		return fmt.Errorf("store genesis: %w", err)
	}

	for _, t := range genesis.Transactions {
		for _, out := range t.Outputs {
			if err := c.utxos.MarkOutputSpendable(out, genesis.Header.ID); err != nil {
				return fmt.Errorf("mark genesis output spendable: %w", err)
			}
		}
	}
	c.utxos.SetTip(genesis.Header.ID)

	c.genesisHash = genesis.Hash
	c.genesisTimestamp = genesis.Header.Timestamp
	c.genesisID = genesis.Header.ID

	c.state = State{
		Height:         genesis.Header.ID,
		TipHash:        genesis.Hash,
		Treasury:       genesis.Header.Treasury,
		CumulativeWork: genesis.RoutingWorkForCreator,
		TipTimestamp:   genesis.Header.Timestamp,
	}
	c.tip = genesis

	if err := c.blocks.SetTip(genesis.Hash, genesis.Header.ID, genesis.Header.Treasury); err != nil {
		return fmt.Errorf("persist tip: %w", err)
	}
	return c.blocks.SetCumulativeWork(c.state.CumulativeWork)
}
