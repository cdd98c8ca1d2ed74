package config

import "testing"

func TestForkSchedule_IsActive_ZeroNotScheduled(t *testing.T) {
	fs := ForkSchedule{}
	if fs.IsActive(0, 100) {
		t.Error("fork at height 0 (not scheduled) should not be active")
	}
}

func TestForkSchedule_IsActive_HeightReached(t *testing.T) {
	fs := ForkSchedule{}
	if !fs.IsActive(50, 50) {
		t.Error("fork at height 50 should be active at height 50")
	}
	if !fs.IsActive(50, 100) {
		t.Error("fork at height 50 should be active at height 100")
	}
}

func TestForkSchedule_IsActive_HeightNotReached(t *testing.T) {
	fs := ForkSchedule{}
	if fs.IsActive(50, 49) {
		t.Error("fork at height 50 should not be active at height 49")
	}
}

func TestMainnetGenesis_HasForks(t *testing.T) {
	g := MainnetGenesis()
	// Forks field should exist (zero-value ForkSchedule).
	_ = g.Forks
}

func TestTestnetGenesis_HasForks(t *testing.T) {
	g := TestnetGenesis()
	_ = g.Forks
}

func TestGenesis_Validate_MainnetValid(t *testing.T) {
	g := MainnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("mainnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_TestnetValid(t *testing.T) {
	g := TestnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("testnet genesis should be valid: %v", err)
	}
}

func TestGenesis_Validate_RejectsBadPubKey(t *testing.T) {
	g := MainnetGenesis()
	g.CreatorPubKey = "not-hex"
	if err := g.Validate(); err == nil {
		t.Error("expected validation error for malformed creator_pubkey")
	}
}

func TestGenesis_Validate_RejectsMissingChainID(t *testing.T) {
	g := MainnetGenesis()
	g.ChainID = ""
	if err := g.Validate(); err == nil {
		t.Error("expected validation error for missing chain_id")
	}
}

func TestGenesis_Block_MintsVIPAllocation(t *testing.T) {
	g := TestnetGenesis()
	b, err := g.Block()
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if len(b.Transactions) != 1 {
		t.Fatalf("want 1 genesis transaction, got %d", len(b.Transactions))
	}
	if len(b.Transactions[0].Outputs) == 0 {
		t.Fatal("want genesis transaction to carry VIP outputs")
	}
}

func TestGenesisFor_SelectsNetwork(t *testing.T) {
	if GenesisFor(Mainnet).ChainID != MainnetGenesis().ChainID {
		t.Error("GenesisFor(Mainnet) should match MainnetGenesis")
	}
	if GenesisFor(Testnet).ChainID != TestnetGenesis().ChainID {
		t.Error("GenesisFor(Testnet) should match TestnetGenesis")
	}
}
