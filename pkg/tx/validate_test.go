package tx

import (
	"testing"

	"github.com/saito-live/saito-chain/pkg/crypto"
)

func TestValidatePath_ValidChain(t *testing.T) {
	creator := mustKey(t)
	hop1 := mustKey(t)
	creatorPK := pubKeyArray(creator)
	hop1PK := pubKeyArray(hop1)

	txn := NewBuilder(TypeNormal, 1).
		AddInput(simpleSlip(creatorPK, 100)).
		Build()
	if err := txn.Sign(creator); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	msg := append(append([]byte{}, txn.Signature[:]...), hop1PK[:]...)
	hash := crypto.Hash(msg)
	sig, err := creator.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	var hop Hop
	hop.From = creatorPK
	hop.To = hop1PK
	copy(hop.Sig[:], sig)
	txn.Path = []Hop{hop}

	if err := txn.ValidatePath(); err != nil {
		t.Errorf("ValidatePath() error = %v, want nil", err)
	}
}

func TestValidatePath_WrongOrigin(t *testing.T) {
	creator := mustKey(t)
	impostor := mustKey(t)
	creatorPK := pubKeyArray(creator)

	txn := NewBuilder(TypeNormal, 1).AddInput(simpleSlip(creatorPK, 100)).Build()
	txn.Path = []Hop{{From: pubKeyArray(impostor), To: creatorPK}}

	if err := txn.ValidatePath(); err == nil {
		t.Error("expected error for hop not originating from transaction owner")
	}
}

func TestValidatePath_CorruptedSignature(t *testing.T) {
	creator := mustKey(t)
	hop1 := mustKey(t)
	creatorPK := pubKeyArray(creator)

	txn := NewBuilder(TypeNormal, 1).AddInput(simpleSlip(creatorPK, 100)).Build()
	if err := txn.Sign(creator); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	var hop Hop
	hop.From = creatorPK
	hop.To = pubKeyArray(hop1)
	hop.Sig[0] = 0xff // garbage, never validly signed
	txn.Path = []Hop{hop}

	if err := txn.ValidatePath(); err == nil {
		t.Error("expected error for corrupted hop signature")
	}
}

func TestValidatePath_Empty(t *testing.T) {
	txn := &Transaction{}
	if err := txn.ValidatePath(); err != nil {
		t.Errorf("empty path should validate trivially, got %v", err)
	}
}
