package block

import (
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/types"
)

// ComputeMerkleRoot builds the merkle root of a block's transaction
// signing-hashes: pair (H[2i], H[2i+1]) — or (H[2i], 0^32) for a
// trailing odd leaf — hash each pair, and repeat on the resulting
// layer until one hash remains. Unlike the common duplicate-last-leaf
// scheme, the odd-leaf pad here is the literal zero hash.
func ComputeMerkleRoot(txHashes []types.Hash) types.Hash {
	if len(txHashes) == 0 {
		return types.Hash{}
	}
	if len(txHashes) == 1 {
		return txHashes[0]
	}

	level := make([]types.Hash, len(txHashes))
	copy(level, txHashes)

	for len(level) > 1 {
		cur := level
		next := make([]types.Hash, (len(cur)+1)/2)
		// Each layer's pair hashes are independent; run them on the
		// same worker pool as per-tx metadata generation.
		_ = parallelEach(len(next), func(i int) error {
			left := cur[2*i]
			var right types.Hash
			if 2*i+1 < len(cur) {
				right = cur[2*i+1]
			}
			next[i] = crypto.HashConcat(left, right)
			return nil
		})
		level = next
	}

	return level[0]
}
