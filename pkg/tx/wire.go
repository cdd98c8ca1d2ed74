package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/slip"
)

// Encode serializes the transaction to its wire/disk format:
//
//	[inputs_len u32][outputs_len u32][message_len u32][path_len u32]
//	[timestamp u64][signature 64B][type u8]
//	[inputs: inputs_len x SLIP_SIZE][outputs: outputs_len x SLIP_SIZE]
//	[message: message_len bytes][path: path_len x HOP_SIZE]
func (tx *Transaction) Encode() []byte {
	return tx.encode(false)
}

// encode builds the wire representation. When forSigning is true the
// signature field is zeroed, producing the canonical bytes hashed for
// signing.
func (tx *Transaction) encode(forSigning bool) []byte {
	size := 4 + 4 + 4 + 4 + 8 + 64 + 1 +
		len(tx.Inputs)*slip.Size + len(tx.Outputs)*slip.Size +
		len(tx.Message) + len(tx.Path)*HopSize
	buf := make([]byte, 0, size)

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Message)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.Path)))
	buf = binary.BigEndian.AppendUint64(buf, tx.Timestamp)
	if forSigning {
		buf = append(buf, make([]byte, 64)...)
	} else {
		buf = append(buf, tx.Signature[:]...)
	}
	buf = append(buf, byte(tx.Type))

	for _, in := range tx.Inputs {
		buf = append(buf, in.Encode()...)
	}
	for _, out := range tx.Outputs {
		buf = append(buf, out.Encode()...)
	}
	buf = append(buf, tx.Message...)
	for _, hop := range tx.Path {
		buf = append(buf, hop.From[:]...)
		buf = append(buf, hop.To[:]...)
		buf = append(buf, hop.Sig[:]...)
	}

	return buf
}

// Decode parses a transaction from its wire/disk format.
func Decode(b []byte) (*Transaction, error) {
	const headerLen = 4 + 4 + 4 + 4 + 8 + 64 + 1
	if len(b) < headerLen {
		return nil, fmt.Errorf("tx: wire data too short for header: %d bytes", len(b))
	}

	off := 0
	inputsLen := binary.BigEndian.Uint32(b[off:])
	off += 4
	outputsLen := binary.BigEndian.Uint32(b[off:])
	off += 4
	messageLen := binary.BigEndian.Uint32(b[off:])
	off += 4
	pathLen := binary.BigEndian.Uint32(b[off:])
	off += 4

	tx := &Transaction{}
	tx.Timestamp = binary.BigEndian.Uint64(b[off:])
	off += 8
	copy(tx.Signature[:], b[off:off+64])
	off += 64
	tx.Type = Type(b[off])
	off++

	need := off + int(inputsLen)*slip.Size + int(outputsLen)*slip.Size + int(messageLen) + int(pathLen)*HopSize
	if len(b) != need {
		return nil, fmt.Errorf("tx: wire data length mismatch: have %d, want %d", len(b), need)
	}

	tx.Inputs = make([]slip.Slip, inputsLen)
	for i := range tx.Inputs {
		s, err := slip.Decode(b[off : off+slip.Size])
		if err != nil {
			return nil, fmt.Errorf("tx: decode input %d: %w", i, err)
		}
		tx.Inputs[i] = s
		off += slip.Size
	}

	tx.Outputs = make([]slip.Slip, outputsLen)
	for i := range tx.Outputs {
		s, err := slip.Decode(b[off : off+slip.Size])
		if err != nil {
			return nil, fmt.Errorf("tx: decode output %d: %w", i, err)
		}
		tx.Outputs[i] = s
		off += slip.Size
	}

	tx.Message = make([]byte, messageLen)
	copy(tx.Message, b[off:off+int(messageLen)])
	off += int(messageLen)

	tx.Path = make([]Hop, pathLen)
	for i := range tx.Path {
		var h Hop
		copy(h.From[:], b[off:off+slip.PublicKeySize])
		off += slip.PublicKeySize
		copy(h.To[:], b[off:off+slip.PublicKeySize])
		off += slip.PublicKeySize
		copy(h.Sig[:], b[off:off+64])
		off += 64
		tx.Path[i] = h
	}

	return tx, nil
}
