// Package node provides a reusable launchpad node that can be embedded
// in any binary (daemon, devnet harness, etc.).
package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	"github.com/Klingon-tech/klingnet-launchpad/internal/bank"
	"github.com/Klingon-tech/klingnet-launchpad/internal/chain"
	"github.com/Klingon-tech/klingnet-launchpad/internal/guard"
	"github.com/Klingon-tech/klingnet-launchpad/internal/launchpad"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/miner"
	"github.com/Klingon-tech/klingnet-launchpad/internal/registry"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
	"github.com/Klingon-tech/klingnet-launchpad/internal/storage"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// Key-space prefixes inside the node database.
var (
	prefixState = []byte("state/") // ledger, bank, guard and registry share one batch space
	prefixChain = []byte("chain/")
	prefixAuth  = []byte("auth/")
)

// Node is a fully-initialized launchpad node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	// Core
	db       storage.DB
	clock    *chain.Clock
	bank     *bank.Bank
	guard    *guard.Guard
	registry *registry.Registry
	ledger   *launchpad.Ledger

	// RPC
	rpcServer *rpc.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a node from cfg. The genesis comes from
// cfg.Genesis when set, otherwise the network's built-in genesis is used.
// Background block production does not start until Start is called.
func New(cfg *config.Config) (*Node, error) {
	genesis, err := loadGenesis(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithGenesis(cfg, genesis)
}

// NewWithGenesis is New with an explicit genesis.
func NewWithGenesis(cfg *config.Config, genesis *config.Genesis) (*Node, error) {
	// ── 1. Set address HRP ──────────────────────────────────────────
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "launchpad.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	// ── 3. Genesis ──────────────────────────────────────────────────
	if err := genesis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}
	owner, _ := genesis.OwnerAddress()
	platform, _ := genesis.PlatformAddress()
	alloc, _ := genesis.Allocations()

	logger.Info().
		Str("chain_id", genesis.ChainID).
		Str("network", string(cfg.Network)).
		Int("block_time", genesis.BlockTime).
		Uint64("platform_fee_bps", genesis.Launch.PlatformFeeBps).
		Msg("Starting Launchpad Node")

	// ── 4. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.StateDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.StateDir(), err)
	}
	logger.Info().Str("path", cfg.StateDir()).Msg("Database opened")

	n, err := assemble(cfg, genesis, db, owner, platform, alloc, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

// assemble builds every component over an open database.
func assemble(cfg *config.Config, genesis *config.Genesis, db storage.DB,
	owner, platform types.Address, alloc map[types.Address]uint64, logger zerolog.Logger) (*Node, error) {

	if err := checkGenesisHash(db, genesis); err != nil {
		return nil, err
	}
	state := storage.NewPrefixDB(db, prefixState)

	// ── 5. Guard and bank ───────────────────────────────────────────
	g, err := guard.New(state, owner)
	if err != nil {
		return nil, fmt.Errorf("create guard: %w", err)
	}
	b := bank.New(state)
	applied, err := b.InitGenesis(alloc)
	if err != nil {
		return nil, fmt.Errorf("apply genesis allocations: %w", err)
	}
	if applied {
		logger.Info().Int("accounts", len(alloc)).Msg("Genesis allocations applied")
	}

	// ── 6. Clock ────────────────────────────────────────────────────
	clock, err := chain.NewClock(storage.NewPrefixDB(db, prefixChain), genesis.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("open chain clock: %w", err)
	}
	tip := clock.Tip()
	logger.Info().
		Uint64("height", tip.Height).
		Str("tip", tip.Hash.String()[:16]+"...").
		Msg("Chain clock ready")

	// ── 7. Registry and ledger ──────────────────────────────────────
	reg, regCap, err := registry.New(state)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	ledger, err := launchpad.New(launchpad.Config{
		DB:             state,
		Guard:          g,
		Bank:           b,
		Registry:       reg,
		RegistryCap:    regCap,
		Height:         clock,
		Rules:          genesis.Rules(),
		PlatformWallet: platform,
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	count, err := ledger.LaunchCount()
	if err != nil {
		return nil, fmt.Errorf("read launch count: %w", err)
	}
	logger.Info().
		Uint64("launches", count).
		Uint64("tokens", reg.Count()).
		Bool("paused", g.Paused()).
		Msg("Ledger ready")

	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		cfg:      cfg,
		genesis:  genesis,
		logger:   logger,
		db:       db,
		clock:    clock,
		bank:     b,
		guard:    g,
		registry: reg,
		ledger:   ledger,
		ctx:      ctx,
		cancel:   cancel,
	}

	// ── 8. RPC ──────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		addr := net.JoinHostPort(cfg.RPC.Addr, strconv.Itoa(cfg.RPC.Port))
		n.rpcServer = rpc.New(addr, rpc.Backend{
			Ledger:  ledger,
			Bank:    b,
			Clock:   clock,
			Guard:   g,
			Genesis: genesis,
			Nonces:  rpc.NewNonceStore(storage.NewPrefixDB(db, prefixAuth)),
		}, cfg.RPC)
		if err := n.rpcServer.Start(); err != nil {
			cancel()
			return nil, fmt.Errorf("start RPC: %w", err)
		}
		logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}

	return n, nil
}

// Start launches background goroutines. Currently that is the block
// producer, when enabled.
func (n *Node) Start() error {
	if n.cfg.Producer.Enabled {
		blockTime := n.BlockTime()
		m := miner.New(n.clock, blockTime, klog.WithComponent("producer"))

		n.logger.Info().Dur("interval", blockTime).Msg("Block production enabled")

		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			m.Run(n.ctx)
		}()
	}

	tip := n.clock.Tip()
	n.logger.Info().
		Uint64("height", tip.Height).
		Str("tip", tip.Hash.String()[:16]+"...").
		Bool("producing", n.cfg.Producer.Enabled).
		Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// BlockTime is the producer interval: the configured override, or the
// genesis block time.
func (n *Node) BlockTime() time.Duration {
	if n.cfg.Producer.BlockTime > 0 {
		return time.Duration(n.cfg.Producer.BlockTime) * time.Second
	}
	return time.Duration(n.genesis.BlockTime) * time.Second
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Height returns the current block height.
func (n *Node) Height() uint64 {
	return n.clock.Height()
}

// Clock returns the node's block clock.
func (n *Node) Clock() *chain.Clock { return n.clock }

// Ledger returns the node's launch ledger.
func (n *Node) Ledger() *launchpad.Ledger { return n.ledger }

// Bank returns the node's balance store.
func (n *Node) Bank() *bank.Bank { return n.bank }

// Genesis returns the genesis the node was started with.
func (n *Node) Genesis() *config.Genesis { return n.genesis }
