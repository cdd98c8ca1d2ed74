// Package crypto provides the cryptographic primitives shared by the
// consensus core: hashing and Schnorr signatures over secp256k1.
package crypto

import (
	"crypto/sha256"

	"github.com/saito-live/saito-chain/pkg/types"
)

// Hash computes a SHA-256 hash of the input data.
//
// The consensus core uses SHA-256 rather than a faster general-purpose
// hash so that signing hashes, merkle roots, and block hashes are
// reproducible with any standard-library implementation.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// DoubleHash computes Hash(Hash(data)).
func DoubleHash(data []byte) types.Hash {
	first := Hash(data)
	return Hash(first[:])
}

// HashConcat hashes the concatenation of two hashes.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}
