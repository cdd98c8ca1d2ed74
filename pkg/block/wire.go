package block

import (
	"encoding/binary"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/tx"
)

// Encode serializes the block to its wire/disk format:
//
//	[tx_count u32][header HeaderSize bytes][tx_0][tx_1]...
//
// Each transaction is length-prefixed so Decode can recover individual
// boundaries without re-deriving them from content. A tx's own encoding
// is technically self-describing (its inputs/outputs/message/path
// counts let a reader walk to its end without an outer length), so this
// prefix is one u32 per transaction more than the minimum; it buys a
// cheap bounds check per transaction instead of trusting nested counts
// all the way down.
func (b *Block) Encode() []byte {
	encodedTxs := make([][]byte, len(b.Transactions))
	size := 4 + HeaderSize
	for i, t := range b.Transactions {
		encodedTxs[i] = t.Encode()
		size += 4 + len(encodedTxs[i])
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b.Transactions)))
	buf = append(buf, b.Header.Encode()...)
	for _, enc := range encodedTxs {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}
	return buf
}

// Decode parses a block from its wire/disk format. Derived fields are
// left zero; call GenerateMetadata to repopulate them.
func Decode(b []byte) (*Block, error) {
	if len(b) < 4+HeaderSize {
		return nil, fmt.Errorf("block: wire data too short for header: %d bytes", len(b))
	}
	off := 0
	txCount := binary.BigEndian.Uint32(b[off:])
	off += 4

	header, err := DecodeHeader(b[off : off+HeaderSize])
	if err != nil {
		return nil, fmt.Errorf("block: decode header: %w", err)
	}
	off += HeaderSize

	txs := make([]*tx.Transaction, txCount)
	for i := range txs {
		if off+4 > len(b) {
			return nil, fmt.Errorf("block: truncated while reading tx %d length", i)
		}
		txLen := binary.BigEndian.Uint32(b[off:])
		off += 4
		if off+int(txLen) > len(b) {
			return nil, fmt.Errorf("block: truncated while reading tx %d body", i)
		}
		t, err := tx.Decode(b[off : off+int(txLen)])
		if err != nil {
			return nil, fmt.Errorf("block: decode tx %d: %w", i, err)
		}
		txs[i] = t
		off += int(txLen)
	}
	if off != len(b) {
		return nil, fmt.Errorf("block: %d trailing bytes after decoding", len(b)-off)
	}

	return &Block{Header: *header, Transactions: txs}, nil
}
