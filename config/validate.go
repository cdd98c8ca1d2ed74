package config

import (
	"encoding/hex"
	"fmt"

	"github.com/saito-live/saito-chain/pkg/slip"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.Mining.Threads < 0 {
		return fmt.Errorf("mining.threads must be >= 0")
	}
	if cfg.Mining.Enabled && cfg.Mining.KeyFile == "" {
		return fmt.Errorf("mining.enabled requires mining.keyfile")
	}
	if cfg.Mining.PublicKey != "" {
		b, err := hex.DecodeString(cfg.Mining.PublicKey)
		if err != nil || len(b) != slip.PublicKeySize {
			return fmt.Errorf("mining.publickey must be a %d-byte hex public key", slip.PublicKeySize)
		}
	}
	return nil
}
