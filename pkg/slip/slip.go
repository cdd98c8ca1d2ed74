// Package slip defines the Slip type, the consensus core's unit of
// spendable value, and the deterministic byte layout used to key it in
// the UTXO set and on the wire.
package slip

import (
	"encoding/binary"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/types"
)

// Type classifies the role a slip plays in the ledger.
type Type uint8

const (
	TypeNormal Type = iota
	TypeStakerDeposit
	TypeStakerOutput
	TypeMinerOutput
	TypeRouterOutput
	TypeVIP
	TypeATR
)

func (t Type) String() string {
	switch t {
	case TypeNormal:
		return "Normal"
	case TypeStakerDeposit:
		return "StakerDeposit"
	case TypeStakerOutput:
		return "StakerOutput"
	case TypeMinerOutput:
		return "MinerOutput"
	case TypeRouterOutput:
		return "RouterOutput"
	case TypeVIP:
		return "VIP"
	case TypeATR:
		return "ATR"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = 33

// Size is the wire length of a serialized slip: 33 + 32 + 8 + 1 + 1.
const Size = PublicKeySize + types.HashSize + 8 + 1 + 1

// Slip is a single spendable unit of value: an owner, an amount, a
// classification, and the identifiers needed to place it uniquely in
// the UTXO set.
//
// UUID is the signing hash of the transaction that created the slip as
// an output; as an input it carries the same value so the slip can be
// looked up by Key in the UTXO set. ATR dust-detection instead stores
// the hash of the block that created the source output.
type Slip struct {
	PublicKey [PublicKeySize]byte
	UUID      types.Hash
	Amount    uint64
	Type      Type
	Ordinal   uint8
}

// Key is the deterministic byte concatenation that identifies a slip in
// the UTXO set. Two slips with equal Key are the same slip.
func (s Slip) Key() [Size]byte {
	var k [Size]byte
	off := 0
	copy(k[off:], s.PublicKey[:])
	off += PublicKeySize
	copy(k[off:], s.UUID[:])
	off += types.HashSize
	binary.BigEndian.PutUint64(k[off:], s.Amount)
	off += 8
	k[off] = byte(s.Type)
	off++
	k[off] = s.Ordinal
	return k
}

// Encode writes the 75-byte wire representation of the slip.
func (s Slip) Encode() []byte {
	k := s.Key()
	return k[:]
}

// Decode parses a 75-byte wire representation into a Slip.
func Decode(b []byte) (Slip, error) {
	if len(b) != Size {
		return Slip{}, fmt.Errorf("slip: wire length must be %d bytes, got %d", Size, len(b))
	}
	var s Slip
	off := 0
	copy(s.PublicKey[:], b[off:off+PublicKeySize])
	off += PublicKeySize
	copy(s.UUID[:], b[off:off+types.HashSize])
	off += types.HashSize
	s.Amount = binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	s.Type = Type(b[off])
	off++
	s.Ordinal = b[off]
	return s, nil
}
