package block

import (
	"github.com/saito-live/saito-chain/pkg/slip"
)

// fakeUTXO is a minimal slip.UTXOProvider test double: every slip it
// is told about is reported spendable at block 0.
type fakeUTXO struct {
	tip uint64
}

func (f fakeUTXO) StateOf(key [slip.Size]byte) slip.State {
	return slip.State{Known: true, Spendable: true, BlockID: 0}
}

func (f fakeUTXO) CurrentBlockID() uint64 { return f.tip }

// fakeChain is a minimal ChainView test double.
type fakeChain struct {
	prev             *Block
	hasPrev          bool
	heights          map[uint64]*Block
	utxo             slip.UTXOProvider
	genesisTimestamp uint64
	genesisID        uint64
}

func (f *fakeChain) PreviousBlock() (*Block, bool) { return f.prev, f.hasPrev }

func (f *fakeChain) BlockAtHeight(id uint64) (*Block, bool) {
	b, ok := f.heights[id]
	return b, ok
}

func (f *fakeChain) UTXOSet() slip.UTXOProvider {
	if f.utxo == nil {
		return fakeUTXO{}
	}
	return f.utxo
}

func (f *fakeChain) GenesisTimestamp() uint64 { return f.genesisTimestamp }
func (f *fakeChain) GenesisID() uint64        { return f.genesisID }

func newFakeChain() *fakeChain {
	return &fakeChain{heights: make(map[uint64]*Block)}
}
