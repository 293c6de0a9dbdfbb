// Command devnet boots a local launchpad node from scratch and drives a
// successful and a failed launch through it over JSON-RPC.
//
// Usage: go run ./cmd/devnet/ [--keep]
//
// It creates a throwaway data directory and a genesis funded with the
// well-known testnet accounts, starts an in-process node with RPC on a
// random port, and advances the block clock by hand so each launch window
// opens and closes in seconds. The process exits non-zero if any balance
// or ledger state differs from what the settlement rules require.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	"github.com/Klingon-tech/klingnet-launchpad/internal/launchpad"
	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/node"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
)

// devnet is the running node plus the actors of both scenarios.
type devnet struct {
	ctx     context.Context
	node    *node.Node
	client  *rpcclient.Client
	owner   *crypto.PrivateKey
	creator *crypto.PrivateKey
	buyers  []*crypto.PrivateKey
	logger  zerolog.Logger
}

func main() {
	keep := flag.Bool("keep", false, "Keep the data directory after exit")
	flag.Parse()
	os.Exit(run(*keep))
}

func run(keep bool) int {
	klog.Init("info", false, "")
	logger := klog.WithComponent("devnet")

	logger.Info().Msg("=== Launchpad Local Devnet ===")

	// ── Phase 1: Data directory + genesis ───────────────────────────────

	dir, err := os.MkdirTemp("", "launchpad-devnet-")
	if err != nil {
		logger.Error().Err(err).Msg("create data dir")
		return 1
	}
	if !keep {
		defer os.RemoveAll(dir)
	}

	cfg := config.Default(config.Testnet)
	cfg.DataDir = dir
	cfg.RPC.Port = 0
	cfg.Producer.Enabled = false
	cfg.Log.Level = "info"
	if err := config.EnsureDataDirs(cfg); err != nil {
		logger.Error().Err(err).Msg("create data dirs")
		return 1
	}

	gen := config.TestnetGenesis()
	gen.ChainID = "launchpad-devnet"
	gen.ChainName = "Local Devnet"
	gen.Timestamp = uint64(time.Now().Unix())

	keys := make([]*crypto.PrivateKey, config.TestnetAccounts)
	for i := range keys {
		if keys[i], err = config.TestnetKey(uint32(i)); err != nil {
			logger.Error().Err(err).Int("account", i).Msg("derive testnet key")
			return 1
		}
		defer keys[i].Zero()
	}

	// ── Phase 2: Boot node ──────────────────────────────────────────────

	n, err := node.NewWithGenesis(cfg, gen)
	if err != nil {
		logger.Error().Err(err).Msg("build node")
		return 1
	}
	defer n.Stop()
	if err := n.Start(); err != nil {
		logger.Error().Err(err).Msg("start node")
		return 1
	}
	logger.Info().Str("rpc", n.RPCAddr()).Str("datadir", dir).Msg("Node running")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("Shutdown signal received")
		cancel()
	}()

	d := &devnet{
		ctx:     ctx,
		node:    n,
		client:  rpcclient.New("http://" + n.RPCAddr()),
		owner:   keys[0],
		creator: keys[1],
		buyers:  keys[2:],
		logger:  logger,
	}

	// ── Phase 3: Scenarios ──────────────────────────────────────────────

	failed := false
	for _, sc := range []struct {
		name string
		run  func() error
	}{
		{"successful launch", d.successScenario},
		{"failed launch", d.refundScenario},
	} {
		if err := sc.run(); err != nil {
			logger.Error().Err(err).Str("scenario", sc.name).Msg("FAILURE")
			failed = true
			continue
		}
		logger.Info().Str("scenario", sc.name).Msg("SUCCESS")
	}

	if failed {
		return 1
	}
	fmt.Println()
	fmt.Printf("  Chain:         %s\n", gen.ChainID)
	fmt.Printf("  Height:        %d\n", n.Height())
	fmt.Printf("  Platform fee:  %d bps\n", gen.Launch.PlatformFeeBps)
	fmt.Printf("  Decimals:      %d\n", config.Decimals)
	fmt.Println()
	return 0
}

// advanceTo moves the block clock forward to height h.
func (d *devnet) advanceTo(h uint64) error {
	if err := d.ctx.Err(); err != nil {
		return err
	}
	if cur := d.node.Height(); h > cur {
		if _, err := d.node.Clock().Advance(h - cur); err != nil {
			return err
		}
	}
	d.logger.Info().Uint64("height", d.node.Height()).Msg("Clock advanced")
	return nil
}

func (d *devnet) balance(k *crypto.PrivateKey) (uint64, error) {
	var res rpc.BalanceResult
	err := d.client.Call("bank_getBalance", rpc.AddressParam{Address: k.Address().String()}, &res)
	return res.Balance, err
}

func (d *devnet) create(p rpc.CreateLaunchPayload) (*lptypes.Launch, error) {
	var res rpc.CreateLaunchResult
	if err := d.client.Send(d.creator, "launch_create", p, &res); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	var l lptypes.Launch
	if err := d.client.Call("launch_get", rpc.LaunchIDParam{LaunchID: res.LaunchID}, &l); err != nil {
		return nil, err
	}
	d.logger.Info().
		Uint64("launch_id", l.ID).
		Uint64("start", l.StartBlock).
		Uint64("end", l.EndBlock).
		Msg("Launch created")
	return &l, nil
}

func launchParams(symbol string) rpc.CreateLaunchPayload {
	return rpc.CreateLaunchPayload{
		Name:          "Devnet " + symbol,
		Symbol:        symbol,
		URI:           "https://example.com/" + symbol + ".json",
		TotalSupply:   1_000_000 * lptypes.TokenPrecision,
		PricePerToken: 100,
		SoftCap:       100 * config.Coin,
		HardCap:       500 * config.Coin,
		MinPurchase:   1 * config.Coin,
		MaxPurchase:   50 * config.Coin,
		Duration:      200,
	}
}

// successScenario: three buyers raise 110 coins against a 100-coin soft
// cap; finalize pays the fee and the creator; each buyer claims once.
func (d *devnet) successScenario() error {
	l, err := d.create(launchParams("WIN"))
	if err != nil {
		return err
	}
	if err := d.advanceTo(l.StartBlock); err != nil {
		return err
	}

	amounts := []uint64{50 * config.Coin, 50 * config.Coin, 10 * config.Coin}
	var raised uint64
	for i, k := range d.buyers[:len(amounts)] {
		var p lptypes.Purchase
		if err := d.client.Send(k, "launch_buy", rpc.BuyPayload{LaunchID: l.ID, Amount: amounts[i]}, &p); err != nil {
			return fmt.Errorf("buy %d: %w", i, err)
		}
		raised += amounts[i]
		d.logger.Info().Uint64("tokens", p.Tokens).Uint64("spent", p.StxSpent).Msg("Purchase")
	}

	ownerBefore, err := d.balance(d.owner)
	if err != nil {
		return err
	}
	creatorBefore, err := d.balance(d.creator)
	if err != nil {
		return err
	}

	if err := d.advanceTo(l.EndBlock); err != nil {
		return err
	}
	var fin rpc.FinalizeResult
	if err := d.client.Send(d.buyers[0], "launch_finalize", rpc.LaunchIDParam{LaunchID: l.ID}, &fin); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	if !fin.Successful {
		return fmt.Errorf("launch %d should have succeeded", l.ID)
	}

	ownerAfter, err := d.balance(d.owner)
	if err != nil {
		return err
	}
	creatorAfter, err := d.balance(d.creator)
	if err != nil {
		return err
	}
	fee := launchpad.PlatformFee(raised, d.node.Ledger().Rules().PlatformFeeBps)
	if ownerAfter-ownerBefore != fee || creatorAfter-creatorBefore != raised-fee {
		return fmt.Errorf("settlement paid fee %d creator %d, want %d and %d",
			ownerAfter-ownerBefore, creatorAfter-creatorBefore, fee, raised-fee)
	}
	d.logger.Info().Uint64("fee", fee).Uint64("creator", raised-fee).Msg("Launch settled")

	for i, k := range d.buyers[:len(amounts)] {
		var res rpc.ClaimResult
		if err := d.client.Send(k, "launch_claim", rpc.LaunchIDParam{LaunchID: l.ID}, &res); err != nil {
			return fmt.Errorf("claim %d: %w", i, err)
		}
		want, _ := launchpad.Allocation(amounts[i], l.PricePerToken)
		if res.Tokens != want {
			return fmt.Errorf("buyer %d claimed %d tokens, want %d", i, res.Tokens, want)
		}
	}
	err = d.client.Send(d.buyers[0], "launch_claim", rpc.LaunchIDParam{LaunchID: l.ID}, nil)
	if !rpcclient.IsCode(err, lptypes.ModuleName, 112) {
		return fmt.Errorf("second claim: got %v, want already claimed", err)
	}
	return nil
}

// faucet funds a fresh key outside genesis.
func (d *devnet) faucet(amount uint64) (*crypto.PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := d.node.Bank().Credit(key.Address(), amount); err != nil {
		return nil, fmt.Errorf("faucet: %w", err)
	}
	d.logger.Info().Str("address", key.Address().String()).Uint64("amount", amount).Msg("Faucet credit")
	return key, nil
}

// refundScenario: a single 30-coin purchase by a faucet-funded buyer
// misses the soft cap; the buyer gets the full amount back exactly once.
func (d *devnet) refundScenario() error {
	l, err := d.create(launchParams("LOSE"))
	if err != nil {
		return err
	}
	if err := d.advanceTo(l.StartBlock); err != nil {
		return err
	}
	buyer, err := d.faucet(40 * config.Coin)
	if err != nil {
		return err
	}
	before, err := d.balance(buyer)
	if err != nil {
		return err
	}
	amount := uint64(30 * config.Coin)
	if err := d.client.Send(buyer, "launch_buy", rpc.BuyPayload{LaunchID: l.ID, Amount: amount}, nil); err != nil {
		return fmt.Errorf("buy: %w", err)
	}

	if err := d.advanceTo(l.EndBlock); err != nil {
		return err
	}
	var fin rpc.FinalizeResult
	if err := d.client.Send(d.creator, "launch_finalize", rpc.LaunchIDParam{LaunchID: l.ID}, &fin); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	if fin.Successful {
		return fmt.Errorf("launch %d should have failed", l.ID)
	}

	var res rpc.RefundResult
	if err := d.client.Send(buyer, "launch_refund", rpc.LaunchIDParam{LaunchID: l.ID}, &res); err != nil {
		return fmt.Errorf("refund: %w", err)
	}
	after, err := d.balance(buyer)
	if err != nil {
		return err
	}
	if res.Amount != amount || after != before {
		return fmt.Errorf("refund %d, balance %d -> %d", res.Amount, before, after)
	}
	err = d.client.Send(buyer, "launch_refund", rpc.LaunchIDParam{LaunchID: l.ID}, nil)
	if !rpcclient.IsCode(err, lptypes.ModuleName, 112) {
		return fmt.Errorf("second refund: got %v, want already refunded", err)
	}
	d.logger.Info().Uint64("refund", res.Amount).Msg("Refund paid")
	return nil
}
