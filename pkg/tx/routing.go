package tx

import (
	"math/big"

	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// routingWeight is one candidate's position and the routing-work
// amount credited to it for this transaction's fee.
type routingWeight struct {
	pubKey [slip.PublicKeySize]byte
	weight uint64
}

// routingWeights lists the creator (full fee) followed by each hop
// recipient, halving at every step: f, f/2, f/4, ...
func (tx *Transaction) routingWeights() []routingWeight {
	weights := make([]routingWeight, 0, len(tx.Path)+1)
	weights = append(weights, routingWeight{pubKey: tx.originPublicKey(), weight: tx.TotalFees})
	for i, hop := range tx.Path {
		weights = append(weights, routingWeight{pubKey: hop.To, weight: tx.TotalFees >> uint(i+1)})
	}
	return weights
}

// RoutingWorkFor returns the routing work this transaction contributes
// to nodePubKey: the full fee if nodePubKey originated the transaction,
// f/2^i if it holds hop position i (1-indexed from the creator), or
// zero if it appears nowhere in the path.
func (tx *Transaction) RoutingWorkFor(nodePubKey [slip.PublicKeySize]byte) uint64 {
	if tx.originPublicKey() == nodePubKey {
		return tx.TotalFees
	}
	for i, hop := range tx.Path {
		if hop.To == nodePubKey {
			return tx.TotalFees >> uint(i+1)
		}
	}
	return 0
}

// GetWinningRoutingNode picks the router credited for this
// transaction, weighted by routing work: compute the cumulative-weight
// prefix, reduce r modulo the total weight, and return the first
// position whose prefix exceeds the target.
func (tx *Transaction) GetWinningRoutingNode(r types.Hash) [slip.PublicKeySize]byte {
	weights := tx.routingWeights()

	var total uint64
	for _, w := range weights {
		total += w.weight
	}
	if total == 0 {
		return tx.originPublicKey()
	}

	target := new(big.Int).Mod(new(big.Int).SetBytes(r[:]), new(big.Int).SetUint64(total)).Uint64()

	var prefix uint64
	for _, w := range weights {
		prefix += w.weight
		if prefix > target {
			return w.pubKey
		}
	}
	return weights[len(weights)-1].pubKey
}
