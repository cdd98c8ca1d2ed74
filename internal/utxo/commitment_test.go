package utxo

import (
	"testing"

	"github.com/saito-live/saito-chain/internal/storage"
	"github.com/saito-live/saito-chain/pkg/slip"
)

func testSlip(b byte, amount uint64) slip.Slip {
	var s slip.Slip
	s.PublicKey[0] = b
	s.Amount = amount
	return s
}

func TestCommitment_Empty(t *testing.T) {
	store := NewStore(storage.NewMemory())

	root, err := Commitment(store)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if !root.IsZero() {
		t.Error("empty store commitment should be zero hash")
	}
}

func TestCommitment_SingleSlip(t *testing.T) {
	store := NewStore(storage.NewMemory())
	if err := store.MarkOutputSpendable(testSlip(1, 1000), 0); err != nil {
		t.Fatal(err)
	}

	root, err := Commitment(store)
	if err != nil {
		t.Fatalf("Commitment: %v", err)
	}
	if root.IsZero() {
		t.Error("single slip commitment should not be zero")
	}
}

func TestCommitment_Deterministic(t *testing.T) {
	makeStore := func() *Store {
		s := NewStore(storage.NewMemory())
		s.MarkOutputSpendable(testSlip(1, 1000), 0)
		s.MarkOutputSpendable(testSlip(2, 2000), 0)
		return s
	}

	root1, _ := Commitment(makeStore())
	root2, _ := Commitment(makeStore())
	if root1 != root2 {
		t.Error("commitment should be deterministic")
	}
}

func TestCommitment_ChangesOnModification(t *testing.T) {
	store := NewStore(storage.NewMemory())
	store.MarkOutputSpendable(testSlip(1, 1000), 0)
	root1, _ := Commitment(store)

	store.MarkOutputSpendable(testSlip(2, 2000), 0)
	root2, _ := Commitment(store)

	if root1 == root2 {
		t.Error("commitment should change after adding a slip")
	}
}

func TestCommitment_ChangesOnSpend(t *testing.T) {
	store := NewStore(storage.NewMemory())
	s1 := testSlip(1, 1000)
	s2 := testSlip(2, 2000)
	store.MarkOutputSpendable(s1, 0)
	store.MarkOutputSpendable(s2, 0)

	root1, _ := Commitment(store)

	if err := store.MarkInputSpent(s2); err != nil {
		t.Fatal(err)
	}
	root2, _ := Commitment(store)

	if root1 == root2 {
		t.Error("commitment should change after spending a slip")
	}
}

func TestCommitment_OrderIndependent(t *testing.T) {
	s1 := testSlip(1, 1000)
	s2 := testSlip(2, 2000)

	store1 := NewStore(storage.NewMemory())
	store1.MarkOutputSpendable(s1, 0)
	store1.MarkOutputSpendable(s2, 0)
	root1, _ := Commitment(store1)

	store2 := NewStore(storage.NewMemory())
	store2.MarkOutputSpendable(s2, 0)
	store2.MarkOutputSpendable(s1, 0)
	root2, _ := Commitment(store2)

	if root1 != root2 {
		t.Error("commitment should be independent of insertion order")
	}
}

func TestStore_ForEach(t *testing.T) {
	store := NewStore(storage.NewMemory())
	store.MarkOutputSpendable(testSlip(1, 1000), 0)
	store.MarkOutputSpendable(testSlip(2, 2000), 0)

	var count int
	err := store.ForEach(func(key [slip.Size]byte, st slip.State) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
