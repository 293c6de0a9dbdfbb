package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-launchpad/config"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-launchpad/internal/wallet"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/crypto"
	"github.com/Klingon-tech/klingnet-launchpad/pkg/types"
)

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	rpcURL  string
	dataDir string
	network string
	wallet  string
	index   uint32
	yes     bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	o := &globalOpts{}
	root := &cobra.Command{
		Use:           "launchpad-cli",
		Short:         "Command-line client for a launchpad node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			network := config.NetworkType(strings.ToLower(o.network))
			switch network {
			case config.Mainnet:
				types.SetAddressHRP(types.MainnetHRP)
			case config.Testnet:
				types.SetAddressHRP(types.TestnetHRP)
			default:
				return fmt.Errorf("unknown network %q", o.network)
			}
			if o.rpcURL == "" {
				o.rpcURL = fmt.Sprintf("http://127.0.0.1:%d", config.DefaultRPCPort(network))
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.rpcURL, "rpc", "", "RPC endpoint (default: local node of --network)")
	pf.StringVar(&o.dataDir, "datadir", config.DefaultDataDir(), "Data directory holding the keystore")
	pf.StringVar(&o.network, "network", string(config.Mainnet), "mainnet or testnet")
	pf.StringVarP(&o.wallet, "wallet", "w", "", "Wallet used to sign")
	pf.Uint32Var(&o.index, "index", 0, "Address index within the wallet")
	pf.BoolVarP(&o.yes, "yes", "y", false, "Skip confirmation prompts")
	pf.DurationVar(&o.timeout, "timeout", 10*time.Second, "RPC request timeout")

	root.AddCommand(
		statusCmd(o),
		blockCmd(o),
		balanceCmd(o),
		walletCmd(o),
		launchCmd(o),
		tokenCmd(o),
		adminCmd(o),
	)
	return root
}

func (o *globalOpts) client() *rpcclient.Client {
	return rpcclient.NewWithTimeout(o.rpcURL, o.timeout)
}

func (o *globalOpts) keystore() (*wallet.Keystore, error) {
	cfg := config.Config{Network: config.NetworkType(strings.ToLower(o.network)), DataDir: o.dataDir}
	return wallet.OpenKeystore(cfg.KeystoreDir())
}

func (o *globalOpts) path() wallet.Path {
	return wallet.Path{Index: o.index}
}

// signer unlocks the selected wallet key.
func (o *globalOpts) signer() (*crypto.PrivateKey, error) {
	if o.wallet == "" {
		return nil, fmt.Errorf("--wallet is required")
	}
	ks, err := o.keystore()
	if err != nil {
		return nil, err
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return ks.Signer(o.wallet, password, o.path())
}

// ownAddress returns the recorded address of the selected wallet key
// without unlocking the wallet.
func (o *globalOpts) ownAddress() (types.Address, error) {
	if o.wallet == "" {
		return types.Address{}, fmt.Errorf("an address or --wallet is required")
	}
	ks, err := o.keystore()
	if err != nil {
		return types.Address{}, err
	}
	accounts, err := ks.Accounts(o.wallet)
	if err != nil {
		return types.Address{}, err
	}
	for _, a := range accounts {
		if a.Path == o.path() {
			return a.Address, nil
		}
	}
	return types.Address{}, fmt.Errorf("wallet %s has no address at %s (run: wallet address --index %d)",
		o.wallet, o.path(), o.index)
}

// addressArg parses args[0] when present, else falls back to the wallet.
func (o *globalOpts) addressArg(args []string) (types.Address, error) {
	if len(args) > 0 {
		return types.ParseAddress(args[0])
	}
	return o.ownAddress()
}

// send signs payload with the selected wallet and submits it.
func (o *globalOpts) send(method string, payload, result interface{}) error {
	key, err := o.signer()
	if err != nil {
		return err
	}
	defer key.Zero()
	return o.client().Send(key, method, payload, result)
}

// confirm prints summary and asks the user to proceed unless --yes.
func (o *globalOpts) confirm(summary string) (bool, error) {
	fmt.Print(summary)
	if o.yes {
		return true, nil
	}
	fmt.Print("Proceed? [y/N]: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	return isYes(line), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
