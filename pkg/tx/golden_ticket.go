package tx

import (
	"fmt"

	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// GoldenTicketSize is the wire length of a golden ticket message:
// random(32) + pubkey(33) + target(32).
const GoldenTicketSize = 32 + slip.PublicKeySize + types.HashSize

// GoldenTicket is the decoded message body of a GoldenTicket
// transaction: a mining solution's randomness, the miner claiming it,
// and the block it was mined against.
type GoldenTicket struct {
	Random    [32]byte
	PublicKey [slip.PublicKeySize]byte
	Target    types.Hash
}

// DecodeGoldenTicket parses a GoldenTicket transaction's message field.
func DecodeGoldenTicket(message []byte) (GoldenTicket, error) {
	if len(message) != GoldenTicketSize {
		return GoldenTicket{}, fmt.Errorf("golden ticket: message length %d, want %d", len(message), GoldenTicketSize)
	}
	var gt GoldenTicket
	off := 0
	copy(gt.Random[:], message[off:off+32])
	off += 32
	copy(gt.PublicKey[:], message[off:off+slip.PublicKeySize])
	off += slip.PublicKeySize
	copy(gt.Target[:], message[off:off+types.HashSize])
	return gt, nil
}

// Encode serializes the golden ticket back to its message form.
func (gt GoldenTicket) Encode() []byte {
	buf := make([]byte, 0, GoldenTicketSize)
	buf = append(buf, gt.Random[:]...)
	buf = append(buf, gt.PublicKey[:]...)
	buf = append(buf, gt.Target[:]...)
	return buf
}
