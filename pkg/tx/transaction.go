// Package tx defines the transaction type: a bundle of input and
// output slips, a routing path, and the metadata derived from them
// during block production and validation.
package tx

import (
	"fmt"
	"math"

	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Type classifies a transaction's role in consensus.
type Type uint8

const (
	TypeNormal Type = iota
	TypeFee
	TypeGoldenTicket
	TypeATR
	TypeVIP
	TypeStakerDeposit
)

func (t Type) String() string {
	switch t {
	case TypeNormal:
		return "Normal"
	case TypeFee:
		return "Fee"
	case TypeGoldenTicket:
		return "GoldenTicket"
	case TypeATR:
		return "ATR"
	case TypeVIP:
		return "VIP"
	case TypeStakerDeposit:
		return "StakerDeposit"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Hop is one link in a transaction's routing path: the signature by
// which one router hands the transaction off to the next.
type Hop struct {
	From [slip.PublicKeySize]byte
	To   [slip.PublicKeySize]byte
	Sig  [64]byte
}

// HopSize is the wire length of a serialized hop.
const HopSize = slip.PublicKeySize*2 + 64

// Transaction is a signed bundle of input and output slips plus the
// routing path that carried it to the block creator.
//
// The fields after Signature are derived during metadata generation
// and the cumulative-fee sweep; they are never part of the wire
// encoding.
type Transaction struct {
	Timestamp uint64
	Inputs    []slip.Slip
	Outputs   []slip.Slip
	Type      Type
	Message   []byte
	Path      []Hop
	Signature [64]byte

	HashForSignature      types.Hash
	TotalIn               uint64
	TotalOut              uint64
	TotalFees             uint64
	CumulativeFees        uint64
	CumulativeWork        uint64
	RoutingWorkForCreator uint64
}

// feelessTypes never derive a fee from inputs minus outputs; their
// total_fees is fixed at zero by definition.
func (t Type) feeless() bool {
	return t == TypeFee || t == TypeATR || t == TypeVIP
}

// SigningBytes returns the canonical byte representation hashed for
// signing: the wire encoding with the signature field zeroed.
func (tx *Transaction) SigningBytes() []byte {
	return tx.encode(true)
}

// Hash returns hash_for_signature: the hash of SigningBytes.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// originPublicKey is the owner that must authorize the transaction and
// that hop[0].from is checked against: the first input's owner, or the
// zero key for input-less (minted) transactions.
func (tx *Transaction) originPublicKey() [slip.PublicKeySize]byte {
	if len(tx.Inputs) > 0 {
		return tx.Inputs[0].PublicKey
	}
	return [slip.PublicKeySize]byte{}
}

// Sign computes the signing hash and signs it with key, storing both
// the signature and the hash on the transaction.
func (tx *Transaction) Sign(key *crypto.PrivateKey) error {
	hash := tx.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	if len(sig) != 64 {
		return fmt.Errorf("sign transaction: unexpected signature length %d", len(sig))
	}
	copy(tx.Signature[:], sig)
	tx.HashForSignature = hash
	return nil
}

func sumAmounts(slips []slip.Slip) (uint64, error) {
	var total uint64
	for _, s := range slips {
		if total > math.MaxUint64-s.Amount {
			return 0, fmt.Errorf("amount sum overflow")
		}
		total += s.Amount
	}
	return total, nil
}

// GenerateMetadata computes the pure, per-transaction fields that do
// not depend on the rest of the block: the signing hash, totals, and
// the routing work this transaction contributes to creatorPubKey.
// Safe to run in parallel across a block's transactions.
func (tx *Transaction) GenerateMetadata(creatorPubKey [slip.PublicKeySize]byte) error {
	totalIn, err := sumAmounts(tx.Inputs)
	if err != nil {
		return fmt.Errorf("total_in: %w", err)
	}
	totalOut, err := sumAmounts(tx.Outputs)
	if err != nil {
		return fmt.Errorf("total_out: %w", err)
	}
	tx.TotalIn = totalIn
	tx.TotalOut = totalOut

	if tx.Type.feeless() {
		tx.TotalFees = 0
	} else {
		if totalIn < totalOut {
			return fmt.Errorf("total_in %d < total_out %d", totalIn, totalOut)
		}
		tx.TotalFees = totalIn - totalOut
	}

	tx.HashForSignature = tx.Hash()
	tx.RoutingWorkForCreator = tx.RoutingWorkFor(creatorPubKey)
	return nil
}

// ApplyCumulative folds this transaction's fee and routing-work
// contribution onto the running prefix carried from the previous
// transaction in block order. This step must run serially, in block
// order: the resulting prefixes define the router-lottery weights.
func (tx *Transaction) ApplyCumulative(prevFees, prevWork uint64) (fees, work uint64) {
	tx.CumulativeFees = prevFees + tx.TotalFees
	tx.CumulativeWork = prevWork + tx.RoutingWorkForCreator
	return tx.CumulativeFees, tx.CumulativeWork
}
