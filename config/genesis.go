package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	"github.com/Klingon-tech/klingnet-launchpad/internal/wallet"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// =============================================================================
// Protocol rules: identical on every node of a network
// =============================================================================

// Denomination constants. All amounts are in base units.
const (
	Decimals = 6
	Coin     = 1_000_000 // 10^6 base units per coin
)

// Genesis holds the network's starting state and protocol rules.
type Genesis struct {
	// Chain identity
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Symbol    string `json:"symbol,omitempty"`

	// Genesis block
	Timestamp uint64 `json:"timestamp"`
	BlockTime int    `json:"block_time"` // Seconds between blocks.

	// Contract owner (pause control) and platform fee recipient.
	Owner          string `json:"owner"`
	PlatformWallet string `json:"platform_wallet"`

	// Initial balances (address -> base units).
	Alloc map[string]uint64 `json:"alloc"`

	// Launch rules
	Launch LaunchRules `json:"launch"`
}

// LaunchRules are the create-launch bounds and the platform fee.
type LaunchRules struct {
	StartDelay     uint64 `json:"start_delay"`      // Blocks between creation and start.
	PlatformFeeBps uint64 `json:"platform_fee_bps"` // Fee on successful launches.
	MinSoftCap     uint64 `json:"min_soft_cap"`
	MaxHardCap     uint64 `json:"max_hard_cap"`
	MaxNameLen     int    `json:"max_name_len"`
	MaxSymbolLen   int    `json:"max_symbol_len"`
	MaxURILen      int    `json:"max_uri_len"`
}

// DefaultLaunchRules mirrors the ledger's default rules.
func DefaultLaunchRules() LaunchRules {
	r := lptypes.DefaultRules()
	return LaunchRules{
		StartDelay:     r.StartDelay,
		PlatformFeeBps: r.PlatformFeeBps,
		MinSoftCap:     r.MinSoftCap,
		MaxHardCap:     r.MaxHardCap,
		MaxNameLen:     r.MaxNameLen,
		MaxSymbolLen:   r.MaxSymbolLen,
		MaxURILen:      r.MaxURILen,
	}
}

// Rules converts the genesis launch rules for the ledger.
func (g *Genesis) Rules() lptypes.Rules {
	return lptypes.Rules{
		StartDelay:     g.Launch.StartDelay,
		PlatformFeeBps: g.Launch.PlatformFeeBps,
		MinSoftCap:     g.Launch.MinSoftCap,
		MaxHardCap:     g.Launch.MaxHardCap,
		MaxNameLen:     g.Launch.MaxNameLen,
		MaxSymbolLen:   g.Launch.MaxSymbolLen,
		MaxURILen:      g.Launch.MaxURILen,
	}
}

// OwnerAddress parses the owner.
func (g *Genesis) OwnerAddress() (types.Address, error) {
	return types.ParseAddress(g.Owner)
}

// PlatformAddress parses the platform wallet.
func (g *Genesis) PlatformAddress() (types.Address, error) {
	return types.ParseAddress(g.PlatformWallet)
}

// Allocations parses the initial balances.
func (g *Genesis) Allocations() (map[types.Address]uint64, error) {
	out := make(map[types.Address]uint64, len(g.Alloc))
	for s, v := range g.Alloc {
		addr, err := types.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("alloc address %q: %w", s, err)
		}
		if _, dup := out[addr]; dup {
			return nil, fmt.Errorf("alloc address %q listed twice", s)
		}
		out[addr] = v
	}
	return out, nil
}

// =============================================================================
// Well-known testnet keys
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Account i is at m/44'/5757'/0'/0/i (no passphrase). Account 0 owns the
// testnet and receives its platform fees; accounts 1-4 are funded buyers.
// =============================================================================

// TestnetMnemonic is the well-known testnet seed phrase.
const TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

// TestnetAccounts is the number of funded testnet accounts.
const TestnetAccounts = 5

// TestnetKey returns the signing key of well-known testnet account i.
func TestnetKey(i uint32) (*crypto.PrivateKey, error) {
	seed, err := wallet.MnemonicSeed(TestnetMnemonic, "")
	if err != nil {
		return nil, err
	}
	return wallet.SignerAt(seed, wallet.Path{Index: i})
}

func mustTestnetAddress(i uint32) string {
	k, err := TestnetKey(i)
	if err != nil {
		panic(fmt.Sprintf("testnet key %d: %v", i, err))
	}
	defer k.Zero()
	return k.Address().Hex()
}

// =============================================================================
// Built-in networks
// =============================================================================

// MainnetGenesis is the built-in mainnet genesis.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:        "launchpad-mainnet-1",
		ChainName:      "Launchpad Mainnet",
		Symbol:         "STX",
		Timestamp:      1788048000, // 2026-09-01
		BlockTime:      600,
		Owner:          "5d1b7c0e9a4f3b2d8c6e1a0f9b7d5c3e2a1f0e9d",
		PlatformWallet: "8e2f4a6c0b1d3e5f7a9c2b4d6e8f0a1c3e5b7d9f",
		Alloc:          map[string]uint64{},
		Launch:         DefaultLaunchRules(),
	}
}

// TestnetGenesis is mainnet's rules with the well-known testnet accounts
// as owner and funded buyers.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "launchpad-testnet-1"
	g.ChainName = "Launchpad Testnet"
	g.BlockTime = 5

	owner := mustTestnetAddress(0)
	g.Owner = owner
	g.PlatformWallet = owner
	g.Alloc = make(map[string]uint64, TestnetAccounts)
	for i := uint32(1); i < TestnetAccounts; i++ {
		g.Alloc[mustTestnetAddress(i)] = 1_000_000 * Coin
	}
	return g
}

// GenesisFor returns the built-in genesis of network.
func GenesisFor(network NetworkType) *Genesis {
	if network == Testnet {
		return TestnetGenesis()
	}
	return MainnetGenesis()
}

// =============================================================================
// Genesis files
// =============================================================================

// LoadGenesis reads and validates a JSON genesis file.
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

// Save writes g as indented JSON.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}
	return nil
}

// Validate checks that the genesis configuration is usable.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if g.BlockTime <= 0 {
		return fmt.Errorf("block_time must be positive")
	}
	owner, err := g.OwnerAddress()
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	if owner.IsZero() {
		return fmt.Errorf("owner must not be the zero address")
	}
	platform, err := g.PlatformAddress()
	if err != nil {
		return fmt.Errorf("platform_wallet: %w", err)
	}
	if platform.IsZero() {
		return fmt.Errorf("platform_wallet must not be the zero address")
	}

	alloc, err := g.Allocations()
	if err != nil {
		return err
	}
	var total uint64
	for _, v := range alloc {
		if v > math.MaxUint64-total {
			return fmt.Errorf("genesis allocations overflow")
		}
		total += v
	}

	if err := g.Rules().Validate(); err != nil {
		return fmt.Errorf("launch rules: %w", err)
	}
	return nil
}

// Hash is BLAKE3 over the JSON encoding of g. The node stores it to refuse
// a data directory initialized from another genesis.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
