package utxo

import (
	"encoding/binary"
	"sort"

	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Commitment computes a merkle root over every spendable slip recorded
// in store, keyed by its ladder state. Returns a zero hash for an
// empty (or all-spent) set. Used for snapshot verification: two nodes
// holding the same UTXO set always compute the same root regardless of
// the order their records were written in.
func Commitment(store *Store) (types.Hash, error) {
	var hashes []types.Hash

	err := store.ForEach(func(key [slip.Size]byte, st slip.State) error {
		if !st.Spendable || st.SpentAt {
			return nil
		}
		hashes = append(hashes, hashEntry(key, st))
		return nil
	})
	if err != nil {
		return types.Hash{}, err
	}

	if len(hashes) == 0 {
		return types.Hash{}, nil
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashLess(hashes[i], hashes[j])
	})

	return block.ComputeMerkleRoot(hashes), nil
}

// hashEntry produces a deterministic hash of a slip key and the block
// id at which it became spendable.
func hashEntry(key [slip.Size]byte, st slip.State) types.Hash {
	buf := make([]byte, 0, slip.Size+8)
	buf = append(buf, key[:]...)
	buf = binary.BigEndian.AppendUint64(buf, st.BlockID)
	return crypto.Hash(buf)
}

func hashLess(a, b types.Hash) bool {
	for i := 0; i < types.HashSize; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
