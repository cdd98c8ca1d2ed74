package slip

import (
	"bytes"
	"testing"

	"github.com/saito-live/saito-chain/pkg/types"
)

func testSlip() Slip {
	var s Slip
	s.PublicKey[0] = 0x02
	s.UUID = types.Hash{0xaa, 0xbb}
	s.Amount = 100_000
	s.Type = TypeNormal
	s.Ordinal = 0
	return s
}

func TestSlip_EncodeDecodeRoundtrip(t *testing.T) {
	s := testSlip()
	enc := s.Encode()
	if len(enc) != Size {
		t.Fatalf("Encode() length = %d, want %d", len(enc), Size)
	}

	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got != s {
		t.Errorf("Decode(Encode(s)) = %+v, want %+v", got, s)
	}
}

func TestSlip_Key_Deterministic(t *testing.T) {
	a := testSlip()
	b := testSlip()
	if a.Key() != b.Key() {
		t.Error("identical slips should have identical keys")
	}

	b.Amount++
	if a.Key() == b.Key() {
		t.Error("differing amount should change the key")
	}
}

func TestSlip_Decode_WrongLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := Decode(make([]byte, Size+1)); err == nil {
		t.Error("expected error for long input")
	}
}

func TestSlip_Key_FieldOrder(t *testing.T) {
	s := testSlip()
	k := s.Key()

	if !bytes.Equal(k[:PublicKeySize], s.PublicKey[:]) {
		t.Error("public key not at expected offset")
	}
	if k[Size-1] != s.Ordinal {
		t.Error("ordinal should be the last byte")
	}
	if k[Size-2] != byte(s.Type) {
		t.Error("type should immediately precede ordinal")
	}
}

type fakeProvider struct {
	states  map[[Size]byte]State
	tipBlk  uint64
}

func (f fakeProvider) StateOf(key [Size]byte) State { return f.states[key] }
func (f fakeProvider) CurrentBlockID() uint64       { return f.tipBlk }

func TestSlip_Validate(t *testing.T) {
	s := testSlip()
	spendable := State{Known: true, Spendable: true, BlockID: 5}

	p := fakeProvider{states: map[[Size]byte]State{s.Key(): spendable}, tipBlk: 10}
	if err := s.Validate(p); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	future := fakeProvider{states: map[[Size]byte]State{s.Key(): {Known: true, Spendable: true, BlockID: 20}}, tipBlk: 10}
	if err := s.Validate(future); err == nil {
		t.Error("expected error for spendable-in-the-future slip")
	}

	spent := fakeProvider{states: map[[Size]byte]State{s.Key(): {Known: true, Spendable: true, SpentAt: true, BlockID: 1}}, tipBlk: 10}
	if err := s.Validate(spent); err == nil {
		t.Error("expected error for spent slip")
	}

	unknown := fakeProvider{states: map[[Size]byte]State{}, tipBlk: 10}
	if err := s.Validate(unknown); err == nil {
		t.Error("expected error for unknown slip")
	}
}

func TestSlip_Validate_ZeroAmount(t *testing.T) {
	s := testSlip()
	s.Amount = 0
	p := fakeProvider{states: map[[Size]byte]State{s.Key(): {Known: true, Spendable: true}}, tipBlk: 0}
	if err := s.Validate(p); err == nil {
		t.Error("expected error for zero-amount slip")
	}
}
