package mempool

import (
	"testing"

	"github.com/saito-live/saito-chain/internal/storage"
	"github.com/saito-live/saito-chain/internal/utxo"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/tx"
)

func newFundedUTXOSet(t *testing.T, out slip.Slip, atHeight uint64) *utxo.Store {
	t.Helper()
	set := utxo.NewStore(storage.NewMemory())
	set.SetTip(atHeight)
	if err := set.MarkOutputSpendable(out, atHeight); err != nil {
		t.Fatalf("MarkOutputSpendable: %v", err)
	}
	return set
}

func buildSpend(t *testing.T, key *crypto.PrivateKey, input slip.Slip, outAmount uint64) *tx.Transaction {
	t.Helper()
	b := tx.NewBuilder(tx.TypeNormal, 1_700_000_000_000).
		AddInput(input).
		AddOutput(slip.Slip{PublicKey: input.PublicKey, Amount: outAmount, Type: slip.TypeNormal})
	if err := b.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return b.Build()
}

func testFunding(t *testing.T) (*crypto.PrivateKey, slip.Slip) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var pub [slip.PublicKeySize]byte
	copy(pub[:], key.PublicKey())
	return key, slip.Slip{PublicKey: pub, Amount: 5000, Type: slip.TypeNormal}
}

func TestPool_Add(t *testing.T) {
	key, input := testFunding(t)
	set := newFundedUTXOSet(t, input, 0)

	pool := New(set, 100, nil)
	transaction := buildSpend(t, key, input, 4000)

	fee, err := pool.Add(transaction)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fee != 1000 {
		t.Fatalf("want fee 1000, got %d", fee)
	}
	if !pool.Has(transaction.Hash()) {
		t.Fatal("pool does not report the transaction as present")
	}
	if pool.Count() != 1 {
		t.Fatalf("want count 1, got %d", pool.Count())
	}
}

func TestPool_Add_RejectsDuplicate(t *testing.T) {
	key, input := testFunding(t)
	set := newFundedUTXOSet(t, input, 0)
	pool := New(set, 100, nil)
	transaction := buildSpend(t, key, input, 4000)

	if _, err := pool.Add(transaction); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := pool.Add(transaction); err == nil {
		t.Fatal("want error re-adding the same transaction")
	}
}

func TestPool_Add_RejectsConflictingInput(t *testing.T) {
	key, input := testFunding(t)
	set := newFundedUTXOSet(t, input, 0)
	pool := New(set, 100, nil)

	first := buildSpend(t, key, input, 4000)
	second := buildSpend(t, key, input, 3000)

	if _, err := pool.Add(first); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := pool.Add(second); err == nil {
		t.Fatal("want error for a transaction spending an already-pooled input")
	}
}

func TestPool_RemoveConfirmed(t *testing.T) {
	key, input := testFunding(t)
	set := newFundedUTXOSet(t, input, 0)
	pool := New(set, 100, nil)
	transaction := buildSpend(t, key, input, 4000)

	if _, err := pool.Add(transaction); err != nil {
		t.Fatalf("Add: %v", err)
	}
	pool.RemoveConfirmed([]*tx.Transaction{transaction})
	if pool.Has(transaction.Hash()) {
		t.Fatal("transaction still present after RemoveConfirmed")
	}
}

func TestPool_SelectForBlock_OrdersByFeeRate(t *testing.T) {
	key, _ := crypto.GenerateKey()
	var pub [slip.PublicKeySize]byte
	copy(pub[:], key.PublicKey())

	set := utxo.NewStore(storage.NewMemory())
	lowFeeIn := slip.Slip{PublicKey: pub, Amount: 1000, Type: slip.TypeNormal, Ordinal: 0}
	highFeeIn := slip.Slip{PublicKey: pub, Amount: 1000, Type: slip.TypeNormal, Ordinal: 1}
	if err := set.MarkOutputSpendable(lowFeeIn, 0); err != nil {
		t.Fatalf("mark low: %v", err)
	}
	if err := set.MarkOutputSpendable(highFeeIn, 0); err != nil {
		t.Fatalf("mark high: %v", err)
	}

	pool := New(set, 100, nil)
	low := buildSpend(t, key, lowFeeIn, 990)  // fee 10
	high := buildSpend(t, key, highFeeIn, 500) // fee 500
	if _, err := pool.Add(low); err != nil {
		t.Fatalf("Add low: %v", err)
	}
	if _, err := pool.Add(high); err != nil {
		t.Fatalf("Add high: %v", err)
	}

	selected := pool.SelectForBlock(1)
	if len(selected) != 1 || selected[0].Hash() != high.Hash() {
		t.Fatal("SelectForBlock did not return the higher fee-rate transaction first")
	}
}

func TestPool_CanBundleBlock_ZeroBurnFeeAlwaysReady(t *testing.T) {
	_, input := testFunding(t)
	set := newFundedUTXOSet(t, input, 0)
	pool := New(set, 100, nil)

	if !pool.CanBundleBlock(input.PublicKey, 0, 2000, 0) {
		t.Fatal("want true when routing_work_needed is zero")
	}
}

func TestPool_AddAndGetBlock(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var pub [slip.PublicKeySize]byte
	copy(pub[:], key.PublicKey())

	blk := block.NewBlock(block.Header{ID: 1, Timestamp: 1_700_000_000_000, Creator: pub}, nil)
	if err := blk.GenerateMetadata(pub); err != nil {
		t.Fatalf("GenerateMetadata: %v", err)
	}

	set := utxo.NewStore(storage.NewMemory())
	pool := New(set, 100, nil)

	if !pool.AddBlock(blk) {
		t.Fatal("want true adding a new held block")
	}
	if pool.AddBlock(blk) {
		t.Fatal("want false re-adding an already-held block")
	}

	got, ok := pool.GetBlock(blk.Hash)
	if !ok || got.Hash != blk.Hash {
		t.Fatal("GetBlock did not return the held block")
	}
	if _, ok := pool.GetBlock(blk.Hash); ok {
		t.Fatal("GetBlock should remove the block once returned")
	}
}
