// Command launchpadd runs a launchpad node: the settlement ledger, its
// block clock and the JSON-RPC server.
//
// Usage:
//
//	launchpadd [--testnet] [--config=FILE] [--rpc.port=N] ...
//	launchpadd --help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	klog "github.com/Klingon-tech/klingnet-launchpad/internal/log"
	"github.com/Klingon-tech/klingnet-launchpad/internal/node"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, flags, err := config.Load(args)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "launchpadd: %v\n", err)
		return 2
	case flags.Help:
		fmt.Print(config.Usage)
		return 0
	case flags.Version:
		fmt.Printf("launchpadd %s\n", version)
		return 0
	}

	n, err := node.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "launchpadd: %v\n", err)
		return 1
	}
	// Stop also closes the database, so it runs even when Start fails.
	defer n.Stop()

	if err := n.Start(); err != nil {
		klog.Logger.Error().Err(err).Msg("Node failed to start")
		return 1
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	klog.Logger.Info().Str("signal", s.String()).Msg("Shutting down")
	return 0
}
