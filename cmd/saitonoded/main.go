// Saito-chain full node daemon.
//
// Usage:
//
//	saitonoded [--mine --keyfile=...]   Run node
//	saitonoded --help                   Show help
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/saito-live/saito-chain/config"
	"github.com/saito-live/saito-chain/internal/chain"
	klog "github.com/saito-live/saito-chain/internal/log"
	"github.com/saito-live/saito-chain/internal/mempool"
	"github.com/saito-live/saito-chain/internal/miner"
	"github.com/saito-live/saito-chain/internal/staking"
	"github.com/saito-live/saito-chain/internal/storage"
	"github.com/saito-live/saito-chain/internal/utxo"
	"github.com/saito-live/saito-chain/pkg/crypto"
	"github.com/rs/zerolog"
)

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Init logger ────────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logs dir: %v\n", err)
			os.Exit(1)
		}
		logFile = logsDir + "/saito-chain.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("node")

	// ── 3. Genesis (hardcoded, not loaded from file) ────────────────────
	genesis := config.GenesisFor(cfg.Network)
	logger.Info().
		Str("chain_id", genesis.ChainID).
		Str("network", string(cfg.Network)).
		Uint64("timestamp", genesis.Timestamp).
		Msg("Starting saito-chain node")

	// ── 4. Open storage ──────────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.ChainDataDir())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.ChainDataDir()).Msg("Failed to open database")
	}
	defer db.Close()

	utxoStore := utxo.NewStore(db)
	stakingPool := staking.NewPool()
	bc := chain.New(db, utxoStore, stakingPool)

	// ── 5. Bring the chain up to tip, seeding genesis on first start ────
	if err := bc.LoadTip(); err != nil {
		genesisBlock, gerr := genesis.Block()
		if gerr != nil {
			logger.Fatal().Err(gerr).Msg("Failed to build genesis block")
		}
		if err := bc.InitFromGenesis(genesisBlock); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed genesis")
		}
		logger.Info().Str("hash", genesisBlock.Hash.String()).Msg("Initialized chain from genesis")
	} else {
		tip, state, _ := bc.Tip()
		logger.Info().Uint64("height", state.Height).Str("tip", tip.Hash.String()).Msg("Resumed chain at tip")
	}

	// ── 6. Mempool ────────────────────────────────────────────────────
	pool := mempool.New(bc.UTXOSet(), 5000, mempool.DefaultPolicy())

	// ── 7. Optional block producer ───────────────────────────────────
	var m *miner.Miner
	if cfg.Mining.Enabled {
		key, err := loadProducerKey(cfg.Mining.KeyFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Mining.KeyFile).Msg("Failed to load producer key")
		}
		defer key.Zero()

		m = miner.New(key, bc, pool)
		m.Threads = cfg.Mining.Threads
		logger.Info().
			Str("pubkey", hex.EncodeToString(key.PublicKey())).
			Int("threads", cfg.Mining.Threads).
			Msg("Block production enabled")
	}

	// ── 8. Shutdown on SIGINT/SIGTERM ────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if m != nil {
		go runProducer(ctx, logger, bc, m)
	}

	logger.Info().Msg("saito-chain node is running")
	<-ctx.Done()
	logger.Info().Msg("Shutting down")
}

// runProducer loops producing and applying candidate blocks until ctx
// is cancelled, spacing attempts so a quiet mempool doesn't spin the
// golden-ticket search continuously.
func runProducer(ctx context.Context, logger zerolog.Logger, bc *chain.Chain, m *miner.Miner) {
	const retryDelay = 2 * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		candidate, err := m.ProduceBlock(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Failed to produce candidate block")
			time.Sleep(retryDelay)
			continue
		}

		if err := bc.AddBlock(candidate); err != nil {
			logger.Warn().Err(err).Str("hash", candidate.Hash.String()).Msg("Failed to add produced block")
			time.Sleep(retryDelay)
			continue
		}

		logger.Info().
			Uint64("height", candidate.Header.ID).
			Str("hash", candidate.Hash.String()).
			Bool("golden_ticket", candidate.HasGoldenTicket).
			Msg("Produced block")

		if !candidate.HasGoldenTicket {
			// No ticket found this round (likely a cancelled search);
			// avoid hammering an empty mempool with back-to-back attempts.
			time.Sleep(retryDelay)
		}
	}
}

// loadProducerKey reads a hex-encoded private key from path.
func loadProducerKey(path string) (*crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return crypto.PrivateKeyFromBytes(keyBytes)
}
