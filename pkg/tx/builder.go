package tx

import (
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a builder for a transaction of the given type,
// stamped with the given timestamp (milliseconds).
func NewBuilder(typ Type, timestamp uint64) *Builder {
	return &Builder{tx: &Transaction{Type: typ, Timestamp: timestamp}}
}

// AddInput appends an input slip.
func (b *Builder) AddInput(s slip.Slip) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, s)
	return b
}

// AddOutput appends an output slip.
func (b *Builder) AddOutput(s slip.Slip) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, s)
	return b
}

// AddHop appends a routing-path hop.
func (b *Builder) AddHop(h Hop) *Builder {
	b.tx.Path = append(b.tx.Path, h)
	return b
}

// SetMessage sets the transaction's message bytes.
func (b *Builder) SetMessage(msg []byte) *Builder {
	b.tx.Message = msg
	return b
}

// Sign signs the transaction with key, the first input's owner.
func (b *Builder) Sign(key *crypto.PrivateKey) error {
	return b.tx.Sign(key)
}

// Build returns the constructed transaction. Does not validate — call
// tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
