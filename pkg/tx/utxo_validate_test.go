package tx

import (
	"testing"

	"github.com/saito-live/saito-chain/pkg/slip"
)

type fakeSet struct {
	states map[[slip.Size]byte]slip.State
	tip    uint64
}

func (f fakeSet) StateOf(key [slip.Size]byte) slip.State { return f.states[key] }
func (f fakeSet) CurrentBlockID() uint64                 { return f.tip }

func TestValidateAgainstUTXOSet_AllSpendable(t *testing.T) {
	pk := pubKeyArray(mustKey(t))
	in := simpleSlip(pk, 100)
	txn := &Transaction{Inputs: []slip.Slip{in}}

	set := fakeSet{states: map[[slip.Size]byte]slip.State{
		in.Key(): {Known: true, Spendable: true, BlockID: 1},
	}, tip: 5}

	if err := txn.ValidateAgainstUTXOSet(set); err != nil {
		t.Errorf("ValidateAgainstUTXOSet() error = %v, want nil", err)
	}
}

func TestValidateAgainstUTXOSet_UnknownInput(t *testing.T) {
	pk := pubKeyArray(mustKey(t))
	in := simpleSlip(pk, 100)
	txn := &Transaction{Inputs: []slip.Slip{in}}

	set := fakeSet{states: map[[slip.Size]byte]slip.State{}, tip: 5}
	if err := txn.ValidateAgainstUTXOSet(set); err == nil {
		t.Error("expected error for unknown input slip")
	}
}

func TestValidateAgainstUTXOSet_SpentInput(t *testing.T) {
	pk := pubKeyArray(mustKey(t))
	in := simpleSlip(pk, 100)
	txn := &Transaction{Inputs: []slip.Slip{in}}

	set := fakeSet{states: map[[slip.Size]byte]slip.State{
		in.Key(): {Known: true, Spendable: true, SpentAt: true, BlockID: 1},
	}, tip: 5}
	if err := txn.ValidateAgainstUTXOSet(set); err == nil {
		t.Error("expected error for already-spent input slip")
	}
}
