// Package block defines the Block type and the consensus-value
// derivation and validation logic that runs over it: merkle roots,
// automatic transaction rebroadcasting, the fee/golden-ticket payout
// split, and difficulty stepping.
package block

import (
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Block is a header plus its transactions, along with the fields
// derived from them during metadata generation.
//
// The derived fields are populated by GenerateMetadata and
// GenerateDataToValidate; a freshly decoded block carries only Header
// and Transactions until one of those runs.
type Block struct {
	Header       Header
	Transactions []*tx.Transaction

	Hash                  types.Hash
	TotalFees             uint64
	RoutingWorkForCreator uint64
	HasGoldenTicket       bool
	HasFeeTransaction     bool
	FeeTransactionIndex   int
	GoldenTicketIndex     int

	TotalRebroadcastSlips uint64
	TotalRebroadcastNolan uint64
	RebroadcastHash       types.Hash

	// LC reports whether this block is currently on the longest chain.
	LC bool
}

// NewBlock creates a block from a header and its transactions.
func NewBlock(header Header, txs []*tx.Transaction) *Block {
	return &Block{Header: header, Transactions: txs}
}

// GenerateMetadata computes each transaction's per-tx metadata in
// parallel, then folds the cumulative fee and routing-work prefixes
// serially in block order, and derives the block's own hash and
// aggregate totals. creatorPubKey is this block's creator, credited
// with the routing work it holds in each transaction's path.
//
// GenerateMetadata does not touch Header.MerkleRoot — it derives Hash
// from whatever root Header already carries. A producer must call
// FillMerkleRoot first so the header commits to the right root before
// it's signed; a validator's root is whatever came off the wire, and
// Validate checks it against a fresh recomputation without ever
// writing it back.
func (b *Block) GenerateMetadata(creatorPubKey [slip.PublicKeySize]byte) error {
	if err := generateTxMetadataParallel(b.Transactions, creatorPubKey); err != nil {
		return err
	}

	var prevFees, prevWork uint64
	b.HasGoldenTicket = false
	b.HasFeeTransaction = false
	for i, t := range b.Transactions {
		prevFees, prevWork = t.ApplyCumulative(prevFees, prevWork)
		switch t.Type {
		case tx.TypeGoldenTicket:
			b.HasGoldenTicket = true
			b.GoldenTicketIndex = i
		case tx.TypeFee:
			b.HasFeeTransaction = true
			b.FeeTransactionIndex = i
		}
	}
	b.TotalFees = prevFees
	b.RoutingWorkForCreator = prevWork

	b.Hash = b.Header.Hash()
	return nil
}

// FillMerkleRoot computes the merkle root over b's transactions and
// commits it to Header.MerkleRoot. A producer calls this once its
// transaction list is final, before GenerateMetadata and signing.
func (b *Block) FillMerkleRoot() {
	b.Header.MerkleRoot = b.generateMerkleRoot()
}

// generateMerkleRoot computes the merkle root over the block's
// transaction signing hashes, in block order.
func (b *Block) generateMerkleRoot() types.Hash {
	hashes := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		hashes[i] = t.HashForSignature
	}
	return ComputeMerkleRoot(hashes)
}

// generateTxMetadataParallel runs Transaction.GenerateMetadata across
// the block's transactions on a worker pool, since each transaction's
// metadata is a pure function of itself and the block creator.
func generateTxMetadataParallel(txs []*tx.Transaction, creatorPubKey [slip.PublicKeySize]byte) error {
	return parallelEach(len(txs), func(i int) error {
		return txs[i].GenerateMetadata(creatorPubKey)
	})
}
