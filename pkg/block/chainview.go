package block

import (
	"github.com/saito-live/saito-chain/pkg/slip"
)

// ChainView is the read-only slice of chain state that block generation
// and validation need. internal/chain's Blockchain implements it; block
// depends only on this interface so the two packages don't import one
// another.
//
// Passing the chain in this way, rather than giving Block a back
// pointer, keeps consensus math here pure and testable without a live
// chain.
type ChainView interface {
	// PreviousBlock returns the block this candidate extends.
	PreviousBlock() (*Block, bool)
	// BlockAtHeight returns the longest-chain block at the given id, if
	// one is on-chain at that height.
	BlockAtHeight(id uint64) (*Block, bool)
	// UTXOSet returns the read-only UTXO view used for §4.7 dust checks
	// and §4.8's per-transaction spendability pass.
	UTXOSet() slip.UTXOProvider
	// GenesisTimestamp and GenesisID bound add_block's sanity check.
	GenesisTimestamp() uint64
	GenesisID() uint64
}
