package block

import (
	"errors"
	"testing"

	"github.com/saito-live/saito-chain/internal/burnfee"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
)

func vipTx() *tx.Transaction {
	return tx.NewBuilder(tx.TypeVIP, 0).
		AddOutput(slip.Slip{PublicKey: pk(2), Amount: 100_000, Type: slip.TypeNormal}).
		Build()
}

func mustGenerate(t *testing.T, b *Block, creator [slip.PublicKeySize]byte) {
	t.Helper()
	b.FillMerkleRoot()
	if err := b.GenerateMetadata(creator); err != nil {
		t.Fatalf("GenerateMetadata: %v", err)
	}
}

func TestValidate_GenesisHappyPath(t *testing.T) {
	creator := pk(1)
	b := NewBlock(Header{ID: 0, Timestamp: 100}, []*tx.Transaction{vipTx()})
	mustGenerate(t, b, creator)

	chain := newFakeChain()

	if err := b.Validate(chain); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_RejectsTimestampBeforeGenesis(t *testing.T) {
	b := NewBlock(Header{ID: 0, Timestamp: 5}, []*tx.Transaction{vipTx()})
	mustGenerate(t, b, pk(1))

	chain := newFakeChain()
	chain.genesisTimestamp = 100

	err := b.Validate(chain)
	if !errors.Is(err, ErrGenesisTimestampLate) {
		t.Errorf("Validate() = %v, want ErrGenesisTimestampLate", err)
	}
}

func TestValidate_RejectsIDBeforeGenesis(t *testing.T) {
	b := NewBlock(Header{ID: 3, Timestamp: 100}, []*tx.Transaction{vipTx()})
	mustGenerate(t, b, pk(1))

	chain := newFakeChain()
	chain.genesisID = 5

	err := b.Validate(chain)
	if !errors.Is(err, ErrGenesisIDTooLow) {
		t.Errorf("Validate() = %v, want ErrGenesisIDTooLow", err)
	}
}

func TestValidate_RejectsZeroMerkleRootWhenEmpty(t *testing.T) {
	b := NewBlock(Header{ID: 0, Timestamp: 100}, nil)
	mustGenerate(t, b, pk(1))

	chain := newFakeChain()

	err := b.Validate(chain)
	if !errors.Is(err, ErrZeroMerkleRoot) {
		t.Errorf("Validate() = %v, want ErrZeroMerkleRoot", err)
	}
}

func buildChild(t *testing.T, prev *Block, burnFee uint64, timestamp uint64) *Block {
	t.Helper()
	child := NewBlock(Header{
		ID:                prev.Header.ID + 1,
		Timestamp:         timestamp,
		BurnFee:           burnFee,
		PreviousBlockHash: prev.Hash,
	}, []*tx.Transaction{vipTx()})
	mustGenerate(t, child, pk(1))
	return child
}

func TestValidate_RejectsBurnFeeMismatch(t *testing.T) {
	prev := NewBlock(Header{ID: 0, Timestamp: 0, BurnFee: 1_000_000}, []*tx.Transaction{vipTx()})
	mustGenerate(t, prev, pk(1))

	child := buildChild(t, prev, 999, 2000)

	chain := newFakeChain()
	chain.prev = prev
	chain.hasPrev = true

	err := child.Validate(chain)
	if !errors.Is(err, ErrBurnFeeMismatch) {
		t.Errorf("Validate() = %v, want ErrBurnFeeMismatch", err)
	}
}

func TestValidate_RejectsInsufficientRoutingWork(t *testing.T) {
	prev := NewBlock(Header{ID: 0, Timestamp: 0, BurnFee: 1_000_000}, []*tx.Transaction{vipTx()})
	mustGenerate(t, prev, pk(1))

	wantBF := burnfee.ForNextBlock(prev.Header.BurnFee, 2000, 0)

	child := buildChild(t, prev, wantBF, 2000)
	// No fee-bearing transactions, so RoutingWorkForCreator is zero while
	// routing_work_needed is necessarily positive for a non-trivial burn fee.

	chain := newFakeChain()
	chain.prev = prev
	chain.hasPrev = true

	err := child.Validate(chain)
	if !errors.Is(err, ErrInsufficientWork) {
		t.Errorf("Validate() = %v, want ErrInsufficientWork", err)
	}
}

func TestValidate_RejectsInvalidGoldenTicket(t *testing.T) {
	prev := NewBlock(Header{ID: 0, Timestamp: 0, Difficulty: 64}, []*tx.Transaction{vipTx()})
	mustGenerate(t, prev, pk(1))

	gt := tx.GoldenTicket{Random: [32]byte{0xFF}, PublicKey: pk(9)}
	gtTx := tx.NewBuilder(tx.TypeGoldenTicket, 1).
		SetMessage(gt.Encode()).
		Build()

	child := NewBlock(Header{
		ID:                1,
		Timestamp:         1000,
		Difficulty:        64,
		PreviousBlockHash: prev.Hash,
		BurnFee:           burnfee.ForNextBlock(prev.Header.BurnFee, 1000, 0),
	}, []*tx.Transaction{gtTx})
	mustGenerate(t, child, pk(1))

	chain := newFakeChain()
	chain.prev = prev
	chain.hasPrev = true

	err := child.Validate(chain)
	if err == nil {
		t.Fatal("Validate() = nil, want an error for an impossibly-high difficulty golden ticket")
	}
	if !errors.Is(err, ErrInvalidGoldenTicket) && !errors.Is(err, ErrInsufficientWork) {
		t.Errorf("Validate() = %v, want ErrInvalidGoldenTicket or ErrInsufficientWork", err)
	}
}

func TestValidate_RejectsDifficultyMismatch(t *testing.T) {
	prev := NewBlock(Header{ID: 0, Timestamp: 0, Difficulty: 5}, []*tx.Transaction{vipTx()})
	mustGenerate(t, prev, pk(1))
	prev.HasGoldenTicket = false

	child := buildChild(t, prev, burnfee.ForNextBlock(0, 1000, 0), 1000)
	child.Header.Difficulty = 99 // wrong: neither block has a GT, so expected is 4

	chain := newFakeChain()
	chain.prev = prev
	chain.hasPrev = true

	err := child.Validate(chain)
	if err == nil {
		t.Fatal("Validate() = nil, want an error")
	}
}
