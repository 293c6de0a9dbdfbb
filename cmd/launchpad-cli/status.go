package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-launchpad/internal/chain"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
)

func statusCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show node status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var info rpc.ChainInfoResult
			if err := o.client().Call("chain_getInfo", nil, &info); err != nil {
				return err
			}
			fmt.Printf("Chain:     %s\n", info.ChainID)
			fmt.Printf("Height:    %d\n", info.Height)
			fmt.Printf("Tip:       %s\n", info.TipHash)
			fmt.Printf("Tip time:  %s\n", time.Unix(int64(info.TipTime), 0).UTC().Format(time.RFC3339))
			fmt.Printf("Owner:     %s\n", info.Owner)
			fmt.Printf("Platform:  %s (fee %d bps)\n", info.PlatformWallet, info.PlatformFeeBps)
			fmt.Printf("Paused:    %v\n", info.Paused)
			fmt.Printf("Launches:  %d\n", info.Launches)
			return nil
		},
	}
}

func blockCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "block <height>",
		Short: "Show the block recorded at a height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height %q", args[0])
			}
			var blk chain.Block
			if err := o.client().Call("chain_getBlock", rpc.HeightParam{Height: height}, &blk); err != nil {
				return err
			}
			fmt.Printf("Height:    %d\n", blk.Height)
			fmt.Printf("Hash:      %s\n", blk.Hash)
			fmt.Printf("Parent:    %s\n", blk.PrevHash)
			fmt.Printf("Time:      %s\n", time.Unix(int64(blk.Timestamp), 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func balanceCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show an address balance (default: the selected wallet)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := o.addressArg(args)
			if err != nil {
				return err
			}
			var res rpc.BalanceResult
			if err := o.client().Call("bank_getBalance", rpc.AddressParam{Address: addr.String()}, &res); err != nil {
				return err
			}
			fmt.Printf("Address: %s\n", res.Address)
			fmt.Printf("Balance: %s\n", formatAmount(res.Balance))
			return nil
		},
	}
}
