package block

import (
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
	"github.com/saito-live/saito-chain/pkg/types"
)

// ATRLag is the number of blocks an output sits on-chain before it
// becomes eligible for automatic rebroadcasting.
const ATRLag = 2

// ATRFee is the nolan fee collected from each rebroadcast output. An
// output with amount <= ATRFee is dust: its value is collected as fee
// rather than rebroadcast.
const ATRFee = 200_000_000

// atrResult is the outcome of running automatic transaction
// rebroadcasting against the block ATRLag heights back.
type atrResult struct {
	rebroadcasts              []*tx.Transaction
	totalRebroadcastSlips     uint64
	totalRebroadcastNolan     uint64
	totalRebroadcastFeesNolan uint64
	rebroadcastHash           types.Hash
}

// GenerateATRTransactions returns the rebroadcast transactions a
// producer building the block at id must embed in its transaction
// list before running GenerateMetadata. It is the exported half of
// computeATR: atrResult's other fields (the totals and rebroadcast
// hash) are re-derived by the validator from these same transactions
// via GenerateDataToValidate, so a producer only ever needs the list.
func GenerateATRTransactions(id uint64, chain ChainView) ([]*tx.Transaction, error) {
	res, err := computeATR(id, chain)
	if err != nil {
		return nil, err
	}
	return res.rebroadcasts, nil
}

// FillRebroadcastCommitment computes §4.7's rebroadcast commitment
// against chain at b's height and sets TotalRebroadcastSlips,
// TotalRebroadcastNolan, and RebroadcastHash on b. A producer must
// call this, after embedding GenerateATRTransactions' output and
// before signing, so the committed totals are the ones Validate
// independently recomputes via GenerateDataToValidate — otherwise they
// stay zero and any ATR-bearing block fails its own ATR check.
func (b *Block) FillRebroadcastCommitment(chain ChainView) error {
	atr, err := computeATR(b.Header.ID, chain)
	if err != nil {
		return err
	}
	b.TotalRebroadcastSlips = atr.totalRebroadcastSlips
	b.TotalRebroadcastNolan = atr.totalRebroadcastNolan
	b.RebroadcastHash = atr.rebroadcastHash
	return nil
}

// computeATR runs §4.7 against chain: at height id > ATRLag, every
// still-spendable output of the block at id-ATRLag is either
// rebroadcast (minus ATRFee) or, if dust, collected as fee outright.
func computeATR(id uint64, chain ChainView) (atrResult, error) {
	var res atrResult
	if id <= ATRLag {
		return res, nil
	}
	source, ok := chain.BlockAtHeight(id - ATRLag)
	if !ok {
		return res, nil
	}

	utxo := chain.UTXOSet()
	for _, t := range source.Transactions {
		for _, out := range t.Outputs {
			if err := out.Validate(utxo); err != nil {
				continue // already spent, not eligible
			}
			if out.Amount <= ATRFee {
				res.totalRebroadcastFeesNolan += out.Amount
				continue
			}

			rebroadcastAmount := out.Amount - ATRFee
			atrOut := slip.Slip{
				PublicKey: out.PublicKey,
				Amount:    rebroadcastAmount,
				Type:      slip.TypeATR,
			}
			atrTx := tx.NewBuilder(tx.TypeATR, source.Header.Timestamp).
				AddOutput(atrOut).
				SetMessage(t.Encode()).
				Build()
			// ATR transactions are not signed by any owner; their
			// authority comes from being reproduced deterministically
			// by every validator from on-chain data.
			atrTx.HashForSignature = atrTx.Hash()

			res.rebroadcasts = append(res.rebroadcasts, atrTx)
			res.totalRebroadcastSlips++
			res.totalRebroadcastNolan += out.Amount
			res.totalRebroadcastFeesNolan += ATRFee

			res.rebroadcastHash = foldRebroadcastHash(res.rebroadcastHash, atrTx)
		}
	}

	return res, nil
}

// foldRebroadcastHash extends the running rebroadcast hash with one
// more ATR transaction's signing bytes: hash(prev || tx.signing_bytes).
func foldRebroadcastHash(prev types.Hash, atrTx *tx.Transaction) types.Hash {
	buf := make([]byte, 0, types.HashSize+len(atrTx.SigningBytes()))
	buf = append(buf, prev[:]...)
	buf = append(buf, atrTx.SigningBytes()...)
	return crypto.Hash(buf)
}
