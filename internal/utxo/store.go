package utxo

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/saito-live/saito-chain/internal/storage"
	"github.com/saito-live/saito-chain/pkg/slip"
)

var prefixUTXO = []byte("u/")

const (
	tagSpendable byte = 0
	tagSpent     byte = 1
)

// Store implements Set over a storage.DB. Each slip key maps to a
// one-byte ladder tag followed by the block id at which the slip
// became spendable.
type Store struct {
	db  storage.DB
	tip atomic.Uint64
}

// NewStore creates a UTXO store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func utxoKey(key [slip.Size]byte) []byte {
	k := make([]byte, len(prefixUTXO)+slip.Size)
	copy(k, prefixUTXO)
	copy(k[len(prefixUTXO):], key[:])
	return k
}

func encodeRecord(tag byte, bid uint64) []byte {
	rec := make([]byte, 9)
	rec[0] = tag
	binary.BigEndian.PutUint64(rec[1:], bid)
	return rec
}

func decodeRecord(data []byte) (tag byte, bid uint64, err error) {
	if len(data) != 9 {
		return 0, 0, fmt.Errorf("utxo: malformed record, len=%d", len(data))
	}
	return data[0], binary.BigEndian.Uint64(data[1:]), nil
}

// SetTip records the chain tip used by StateOf's future-spendability check.
func (s *Store) SetTip(bid uint64) {
	s.tip.Store(bid)
}

// CurrentBlockID returns the last tip recorded via SetTip.
func (s *Store) CurrentBlockID() uint64 {
	return s.tip.Load()
}

// StateOf returns the ladder state for a slip key.
func (s *Store) StateOf(key [slip.Size]byte) slip.State {
	data, err := s.db.Get(utxoKey(key))
	if err != nil {
		return slip.Unknown
	}
	tag, bid, err := decodeRecord(data)
	if err != nil {
		return slip.Unknown
	}
	return slip.State{
		Known:     true,
		Spendable: tag == tagSpendable,
		SpentAt:   tag == tagSpent,
		BlockID:   bid,
	}
}

// MarkOutputSpendable moves an output slip from unknown to
// spendable-at-bid.
func (s *Store) MarkOutputSpendable(sl slip.Slip, bid uint64) error {
	key := sl.Key()
	if err := s.db.Put(utxoKey(key), encodeRecord(tagSpendable, bid)); err != nil {
		return fmt.Errorf("utxo mark spendable: %w", err)
	}
	return nil
}

// UnmarkOutputSpendable moves a spendable output back to unknown
// (deletes its record).
func (s *Store) UnmarkOutputSpendable(sl slip.Slip) error {
	key := sl.Key()
	if err := s.db.Delete(utxoKey(key)); err != nil {
		return fmt.Errorf("utxo unmark spendable: %w", err)
	}
	return nil
}

// MarkInputSpent moves a spendable slip to spent, recording the block
// id it had been spendable at for rollback.
func (s *Store) MarkInputSpent(sl slip.Slip) error {
	key := sl.Key()
	st := s.StateOf(key)
	if !st.Known || !st.Spendable {
		return fmt.Errorf("utxo mark spent: slip not spendable")
	}
	if err := s.db.Put(utxoKey(key), encodeRecord(tagSpent, st.BlockID)); err != nil {
		return fmt.Errorf("utxo mark spent: %w", err)
	}
	return nil
}

// UnmarkInputSpent moves a spent slip back to spendable at bid.
func (s *Store) UnmarkInputSpent(sl slip.Slip, bid uint64) error {
	key := sl.Key()
	if err := s.db.Put(utxoKey(key), encodeRecord(tagSpendable, bid)); err != nil {
		return fmt.Errorf("utxo unmark spent: %w", err)
	}
	return nil
}

// ForEach iterates over every recorded slip key and its state.
func (s *Store) ForEach(fn func(key [slip.Size]byte, st slip.State) error) error {
	return s.db.ForEach(prefixUTXO, func(k, v []byte) error {
		if len(k) != len(prefixUTXO)+slip.Size {
			return nil
		}
		var key [slip.Size]byte
		copy(key[:], k[len(prefixUTXO):])
		tag, bid, err := decodeRecord(v)
		if err != nil {
			return nil
		}
		return fn(key, slip.State{Known: true, Spendable: tag == tagSpendable, SpentAt: tag == tagSpent, BlockID: bid})
	})
}

// ClearAll removes every recorded slip. Used during UTXO-set recovery
// when undo data is missing and the set must be rebuilt from genesis.
func (s *Store) ClearAll() error {
	var keys [][]byte
	if err := s.db.ForEach(prefixUTXO, func(k, _ []byte) error {
		kc := make([]byte, len(k))
		copy(kc, k)
		keys = append(keys, kc)
		return nil
	}); err != nil {
		return fmt.Errorf("utxo clear all: scan: %w", err)
	}
	for _, k := range keys {
		if err := s.db.Delete(k); err != nil {
			return fmt.Errorf("utxo clear all: delete: %w", err)
		}
	}
	return nil
}
