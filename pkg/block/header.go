package block

import (
	"encoding/binary"

	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// HeaderSize is the wire length of a serialized header: 8+8+32+33+32+64+8+8+8.
const HeaderSize = 8 + 8 + types.HashSize + slip.PublicKeySize + types.HashSize + 64 + 8 + 8 + 8

// headerSigningSize is the length of the bytes fed to the header's
// signing hash: HeaderSize minus the 64-byte signature, which is never
// self-referential.
const headerSigningSize = HeaderSize - 64

// Header carries a block's consensus-relevant metadata.
type Header struct {
	ID                uint64
	Timestamp         uint64
	PreviousBlockHash types.Hash
	Creator           [slip.PublicKeySize]byte
	MerkleRoot        types.Hash
	Signature         [64]byte
	Treasury          uint64
	BurnFee           uint64
	Difficulty        uint64
}

// SigningBytes returns the 137-byte sequence fed to the header's
// signing hash: id || timestamp || prev_hash || creator || merkle_root
// || treasury || burnfee || difficulty.
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, headerSigningSize)
	buf = binary.BigEndian.AppendUint64(buf, h.ID)
	buf = binary.BigEndian.AppendUint64(buf, h.Timestamp)
	buf = append(buf, h.PreviousBlockHash[:]...)
	buf = append(buf, h.Creator[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.BigEndian.AppendUint64(buf, h.Treasury)
	buf = binary.BigEndian.AppendUint64(buf, h.BurnFee)
	buf = binary.BigEndian.AppendUint64(buf, h.Difficulty)
	return buf
}

// Hash is the block hash: the hash of the header's signing bytes.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// Sign signs the header hash with key and stores the signature.
func (h *Header) Sign(key *crypto.PrivateKey) error {
	hash := h.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return err
	}
	copy(h.Signature[:], sig)
	return nil
}

// Encode serializes the header to its wire/disk format.
func (h *Header) Encode() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = binary.BigEndian.AppendUint64(buf, h.ID)
	buf = binary.BigEndian.AppendUint64(buf, h.Timestamp)
	buf = append(buf, h.PreviousBlockHash[:]...)
	buf = append(buf, h.Creator[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = append(buf, h.Signature[:]...)
	buf = binary.BigEndian.AppendUint64(buf, h.Treasury)
	buf = binary.BigEndian.AppendUint64(buf, h.BurnFee)
	buf = binary.BigEndian.AppendUint64(buf, h.Difficulty)
	return buf
}

// DecodeHeader parses a header from its wire/disk format.
func DecodeHeader(b []byte) (*Header, error) {
	if len(b) != HeaderSize {
		return nil, errHeaderLength(len(b))
	}
	h := &Header{}
	off := 0
	h.ID = binary.BigEndian.Uint64(b[off:])
	off += 8
	h.Timestamp = binary.BigEndian.Uint64(b[off:])
	off += 8
	copy(h.PreviousBlockHash[:], b[off:off+types.HashSize])
	off += types.HashSize
	copy(h.Creator[:], b[off:off+slip.PublicKeySize])
	off += slip.PublicKeySize
	copy(h.MerkleRoot[:], b[off:off+types.HashSize])
	off += types.HashSize
	copy(h.Signature[:], b[off:off+64])
	off += 64
	h.Treasury = binary.BigEndian.Uint64(b[off:])
	off += 8
	h.BurnFee = binary.BigEndian.Uint64(b[off:])
	off += 8
	h.Difficulty = binary.BigEndian.Uint64(b[off:])
	return h, nil
}

func errHeaderLength(got int) error {
	return &headerLengthError{got: got}
}

type headerLengthError struct{ got int }

func (e *headerLengthError) Error() string {
	return "block: header wire length mismatch"
}
