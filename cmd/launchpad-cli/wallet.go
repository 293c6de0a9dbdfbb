package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-launchpad/internal/wallet"
)

func walletCmd(o *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage signing wallets",
	}
	cmd.AddCommand(
		walletCreateCmd(o),
		walletImportCmd(o),
		walletListCmd(o),
		walletAddressCmd(o),
		walletRemoveCmd(o),
	)
	return cmd
}

// newPassword prompts twice for a wallet password.
func newPassword() ([]byte, error) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if string(password) != string(confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("password must not be empty")
	}
	return password, nil
}

func storeWallet(o *globalOpts, name, phrase string) error {
	password, err := newPassword()
	if err != nil {
		return err
	}
	ks, err := o.keystore()
	if err != nil {
		return err
	}
	acct, err := ks.Create(name, phrase, "", password, wallet.DefaultKDF())
	if err != nil {
		return err
	}
	fmt.Printf("\nWallet created: %s\n", name)
	fmt.Printf("Address: %s (%s)\n", acct.Address, acct.Path)
	return nil
}

func walletCreateCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a wallet from a new mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase, err := wallet.NewMnemonic()
			if err != nil {
				return err
			}
			fmt.Println("Mnemonic (write this down!):")
			fmt.Printf("  %s\n\n", phrase)
			return storeWallet(o, args[0], phrase)
		},
	}
}

func walletImportCmd(o *globalOpts) *cobra.Command {
	var mnemonic string
	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import a wallet from a mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mnemonic == "" {
				raw, err := readPassword("Enter mnemonic: ")
				if err != nil {
					return fmt.Errorf("read mnemonic: %w", err)
				}
				mnemonic = string(raw)
			}
			phrase := wallet.NormalizeMnemonic(mnemonic)
			if err := wallet.CheckMnemonic(phrase); err != nil {
				return err
			}
			return storeWallet(o, args[0], phrase)
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "BIP-39 mnemonic (prompted when omitted)")
	return cmd
}

func walletListCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := o.keystore()
			if err != nil {
				return err
			}
			names, err := ks.Names()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No wallets. Create one with: launchpad-cli wallet create <name>")
				return nil
			}
			for _, name := range names {
				accounts, err := ks.Accounts(name)
				if err != nil {
					return err
				}
				addrs := make([]string, len(accounts))
				for i, a := range accounts {
					addrs[i] = a.Address.String()
				}
				fmt.Printf("%-16s %s\n", name, strings.Join(addrs, ", "))
			}
			return nil
		},
	}
}

func walletAddressCmd(o *globalOpts) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Show (deriving if needed) the address at --index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, err := o.ownAddress(); err == nil {
				fmt.Printf("%s  %s\n", addr, o.path())
				return nil
			}
			if o.wallet == "" {
				return fmt.Errorf("--wallet is required")
			}
			ks, err := o.keystore()
			if err != nil {
				return err
			}
			password, err := readPassword("Enter password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			acct, err := ks.Derive(o.wallet, password, o.path(), label)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", acct.Address, acct.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Label recorded with a new address")
	return cmd
}

func walletRemoveCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a wallet file",
		Long: `Delete a wallet file from the keystore. The mnemonic is the only way to
recover the keys afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := o.keystore()
			if err != nil {
				return err
			}
			if ok, err := o.confirm(fmt.Sprintf("Remove wallet %q\n", args[0])); err != nil || !ok {
				return err
			}
			if err := ks.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("Wallet %s removed\n", args[0])
			return nil
		},
	}
}
