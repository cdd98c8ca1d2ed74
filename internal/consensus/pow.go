// Package consensus drives golden-ticket mining: searching for a
// random value whose hash against the previous block's difficulty
// qualifies as a valid proof of work, and wiring that solution's
// validation into block acceptance.
package consensus

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// Errors returned by golden-ticket mining and validation.
var (
	ErrNoSolutionFound = errors.New("no golden ticket solution found before cancellation")
)

// Miner searches for golden tickets: random 32-byte values whose hash,
// concatenated with the miner's public key, has at least as many
// leading zero bits as the target difficulty.
type Miner struct {
	PublicKey [slip.PublicKeySize]byte

	// Threads controls how many goroutines search in parallel. 0 or 1
	// runs a single search loop.
	Threads int
}

// NewMiner creates a Miner for the given public key.
func NewMiner(pubKey [slip.PublicKeySize]byte, threads int) *Miner {
	return &Miner{PublicKey: pubKey, Threads: threads}
}

// Solution is a golden ticket's random value, ready to embed in a
// GoldenTicket transaction's message.
type Solution struct {
	Random [32]byte
}

// IsValidSolution checks whether random, paired with minerPubKey,
// qualifies against difficulty: leading_zero_bits(hash(random ||
// minerPubKey)) >= difficulty.
func IsValidSolution(random [32]byte, minerPubKey [slip.PublicKeySize]byte, difficulty uint64) bool {
	msg := make([]byte, 0, len(random)+slip.PublicKeySize)
	msg = append(msg, random[:]...)
	msg = append(msg, minerPubKey[:]...)
	hash := crypto.Hash(msg)
	return LeadingZeroBits(hash) >= difficulty
}

// LeadingZeroBits counts the leading zero bits of a hash.
func LeadingZeroBits(h types.Hash) uint64 {
	var count uint64
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

// Search looks for a qualifying golden ticket against difficulty,
// returning as soon as one goroutine finds a solution or ctx is
// cancelled.
func (m *Miner) Search(ctx context.Context, difficulty uint64) (Solution, error) {
	threads := m.Threads
	if threads < 1 {
		threads = 1
	}
	return m.searchParallel(ctx, difficulty, threads)
}

func (m *Miner) searchParallel(ctx context.Context, difficulty uint64, threads int) (Solution, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		sol Solution
		err error
	}
	found := make(chan result, 1)

	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			var random [32]byte
			iterations := 0
			for {
				iterations++
				if iterations&0xFFF == 0 {
					select {
					case <-ctx.Done():
						return
					default:
					}
				}
				if _, err := rand.Read(random[:]); err != nil {
					select {
					case found <- result{err: fmt.Errorf("read randomness: %w", err)}:
					default:
					}
					return
				}
				if IsValidSolution(random, m.PublicKey, difficulty) {
					select {
					case found <- result{sol: Solution{Random: random}}:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	select {
	case r, ok := <-found:
		if !ok {
			return Solution{}, ErrNoSolutionFound
		}
		return r.sol, r.err
	case <-ctx.Done():
		return Solution{}, ctx.Err()
	}
}
