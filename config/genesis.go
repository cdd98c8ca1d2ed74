package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/saito-live/saito-chain/internal/chain"
	"github.com/saito-live/saito-chain/pkg/block"
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/saito-live/saito-chain/pkg/slip"
	"github.com/saito-live/saito-chain/pkg/types"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes or consensus breaks.
// =============================================================================

// Denomination constants.
// 1 coin = 10^8 nolan. All on-chain amounts (slip.Slip.Amount) are nolan.
const (
	Decimals  = 8
	Coin      = 100_000_000
	MilliCoin = Coin / 1_000
)

// ForkSchedule defines block heights at which protocol upgrades activate.
// A zero value means the fork is not scheduled.
type ForkSchedule struct {
	// Future forks are added here as fields. Example:
	// RoutingWorkV2Height uint64 `json:"routing_work_v2_height,omitempty"`
}

// IsActive returns true if a fork at forkHeight has activated at currentHeight.
// Returns false if forkHeight is 0 (not scheduled).
func (f *ForkSchedule) IsActive(forkHeight, currentHeight uint64) bool {
	return forkHeight > 0 && currentHeight >= forkHeight
}

// Genesis holds the genesis block configuration for a network. This is
// immutable after chain launch — changes require a hard fork.
type Genesis struct {
	// Chain identity
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`

	// Genesis block
	Timestamp      uint64 `json:"timestamp"`
	CreatorPubKey  string `json:"creator_pubkey"`  // hex-encoded 33-byte key, mints the VIP allocation
	TreasuryNolan  uint64 `json:"treasury_nolan"`  // seeds the staking pool's reward reserve
	ExtraData      string `json:"extra_data,omitempty"`

	// Fork activation schedule
	Forks ForkSchedule `json:"forks,omitempty"`
}

// =============================================================================
// Testnet Identity
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Derivation path: m/44'/8888'/0'/0/0 (no passphrase)
// =============================================================================

const (
	// TestnetMnemonic is the well-known seed phrase for the testnet genesis key.
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	// TestnetPublicKey is the compressed public key (hex) derived from TestnetMnemonic.
	TestnetPublicKey = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"

	// TestnetPrivateKey is the private key (hex) derived from TestnetMnemonic.
	TestnetPrivateKey = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"
)

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration. The
// production creator key is provisioned out of band; this placeholder
// matches the all-zero key until mainnet launch fixes it.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:       "saito-chain-mainnet-1",
		ChainName:     "Saito Chain Mainnet",
		Timestamp:     1770734103, // 2026-02-10
		CreatorPubKey: hex.EncodeToString(make([]byte, slip.PublicKeySize)),
		TreasuryNolan: 100_000_000 * Coin,
		ExtraData:     "saito-chain genesis",
	}
}

// TestnetGenesis returns the testnet genesis configuration, minted
// under the well-known testnet key so operators can stand up a node
// without provisioning a fresh key.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "saito-chain-testnet-1"
	g.ChainName = "Saito Chain Testnet"
	g.ExtraData = "saito-chain testnet genesis"
	g.CreatorPubKey = TestnetPublicKey
	g.TreasuryNolan = 1_000_000 * Coin
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is well-formed.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if g.Timestamp == 0 {
		return fmt.Errorf("timestamp is required")
	}
	if _, err := g.creatorPubKey(); err != nil {
		return fmt.Errorf("creator_pubkey: %w", err)
	}
	return nil
}

func (g *Genesis) creatorPubKey() ([slip.PublicKeySize]byte, error) {
	var pub [slip.PublicKeySize]byte
	b, err := hex.DecodeString(g.CreatorPubKey)
	if err != nil || len(b) != slip.PublicKeySize {
		return pub, fmt.Errorf("must be a %d-byte hex public key", slip.PublicKeySize)
	}
	copy(pub[:], b)
	return pub, nil
}

// Block builds the chain's genesis block from this configuration, per
// chain.CreateGenesisBlock: a single VIP transaction minting
// chain.GenesisVIPCount outputs to the creator key, seeding the
// treasury for the staking pool.
func (g *Genesis) Block() (*block.Block, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	pub, err := g.creatorPubKey()
	if err != nil {
		return nil, err
	}
	return chain.CreateGenesisBlock(pub, g.Timestamp, g.TreasuryNolan)
}

// Hash returns a hash of the genesis configuration, used to detect
// genesis mismatches between nodes before they ever exchange blocks.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
