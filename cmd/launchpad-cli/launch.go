package main

import (
	"fmt"

	"github.com/spf13/cobra"

	lptypes "github.com/Klingon-tech/klingnet-launchpad/internal/launchpad/types"
	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
)

func launchCmd(o *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Create, fund and settle token launches",
	}
	cmd.AddCommand(
		launchCreateCmd(o),
		launchBuyCmd(o),
		launchFinalizeCmd(o),
		launchClaimCmd(o),
		launchRefundCmd(o),
		launchInfoCmd(o),
		launchStatsCmd(o),
		launchContributionCmd(o),
		launchContributionsCmd(o),
		launchListCmd(o),
		launchFindCmd(o),
	)
	return cmd
}

func getLaunch(o *globalOpts, id uint64) (*lptypes.Launch, error) {
	var l lptypes.Launch
	if err := o.client().Call("launch_get", rpc.LaunchIDParam{LaunchID: id}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func printLaunch(l *lptypes.Launch) {
	fmt.Printf("Launch #%d: %s (%s)\n", l.ID, l.TokenName, l.TokenSymbol)
	fmt.Printf("  Creator:      %s\n", l.Creator)
	fmt.Printf("  URI:          %s\n", l.TokenURI)
	fmt.Printf("  Supply:       %d\n", l.TotalSupply)
	fmt.Printf("  Price:        %d per token\n", l.PricePerToken)
	fmt.Printf("  Soft cap:     %s\n", formatAmount(l.SoftCap))
	fmt.Printf("  Hard cap:     %s\n", formatAmount(l.HardCap))
	fmt.Printf("  Purchase:     %s - %s\n", formatAmount(l.MinPurchase), formatAmount(l.MaxPurchase))
	fmt.Printf("  Window:       blocks %d - %d\n", l.StartBlock, l.EndBlock)
	fmt.Printf("  Raised:       %s\n", formatAmount(l.TotalRaised))
	fmt.Printf("  Tokens sold:  %d\n", l.TokensSold)
	fmt.Printf("  Finalized:    %v\n", l.IsFinalized)
	if l.IsFinalized {
		fmt.Printf("  Successful:   %v\n", l.IsSuccessful)
	}
	if l.TokenContract != nil {
		fmt.Printf("  Token:        %s\n", l.TokenContract)
	}
}

func printContribution(c *lptypes.Contribution) {
	fmt.Printf("Launch #%d  %s\n", c.LaunchID, c.Contributor)
	fmt.Printf("  Contributed:  %s\n", formatAmount(c.StxContributed))
	fmt.Printf("  Tokens:       %d\n", c.TokensAllocated)
	fmt.Printf("  Claimed:      %v\n", c.Claimed)
}

func launchCreateCmd(o *globalOpts) *cobra.Command {
	var (
		p                                rpc.CreateLaunchPayload
		softCap, hardCap, minBuy, maxBuy string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			for _, f := range []struct {
				dst *uint64
				src string
				tag string
			}{
				{&p.SoftCap, softCap, "soft-cap"},
				{&p.HardCap, hardCap, "hard-cap"},
				{&p.MinPurchase, minBuy, "min"},
				{&p.MaxPurchase, maxBuy, "max"},
			} {
				if *f.dst, err = parseAmount(f.src); err != nil {
					return fmt.Errorf("--%s: %w", f.tag, err)
				}
			}

			summary := fmt.Sprintf("Create launch %s (%s)\n  supply %d at %d per token\n"+
				"  caps %s / %s, purchase %s - %s, %d blocks\n",
				p.Name, p.Symbol, p.TotalSupply, p.PricePerToken,
				formatAmount(p.SoftCap), formatAmount(p.HardCap),
				formatAmount(p.MinPurchase), formatAmount(p.MaxPurchase), p.Duration)
			if ok, err := o.confirm(summary); err != nil || !ok {
				return err
			}

			var res rpc.CreateLaunchResult
			if err := o.send("launch_create", p, &res); err != nil {
				return err
			}
			fmt.Printf("Launch created: #%d\n", res.LaunchID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "Token name")
	f.StringVar(&p.Symbol, "symbol", "", "Token symbol")
	f.StringVar(&p.URI, "uri", "", "Token metadata URI")
	f.Uint64Var(&p.TotalSupply, "supply", 0, "Total token supply (base units)")
	f.Uint64Var(&p.PricePerToken, "price", 0, "Price per whole token (base units)")
	f.StringVar(&softCap, "soft-cap", "", "Soft cap")
	f.StringVar(&hardCap, "hard-cap", "", "Hard cap")
	f.StringVar(&minBuy, "min", "", "Minimum purchase")
	f.StringVar(&maxBuy, "max", "", "Maximum total purchase per buyer")
	f.Uint64Var(&p.Duration, "duration", 0, "Funding window in blocks")
	for _, name := range []string{"name", "symbol", "uri", "supply", "price", "soft-cap", "hard-cap", "min", "max", "duration"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func launchBuyCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <launch-id> <amount>",
		Short: "Buy tokens in an active launch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			l, err := getLaunch(o, id)
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("Buy into launch #%d %s (%s) for %s\n",
				id, l.TokenName, l.TokenSymbol, formatAmount(amount))
			if ok, err := o.confirm(summary); err != nil || !ok {
				return err
			}
			var res lptypes.Purchase
			if err := o.send("launch_buy", rpc.BuyPayload{LaunchID: id, Amount: amount}, &res); err != nil {
				return err
			}
			fmt.Printf("Bought %d tokens for %s\n", res.Tokens, formatAmount(res.StxSpent))
			return nil
		},
	}
}

func launchFinalizeCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <launch-id>",
		Short: "Settle a launch whose window has closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var res rpc.FinalizeResult
			if err := o.send("launch_finalize", rpc.LaunchIDParam{LaunchID: id}, &res); err != nil {
				return err
			}
			if res.Successful {
				fmt.Printf("Launch #%d finalized: successful, funds released to creator\n", id)
			} else {
				fmt.Printf("Launch #%d finalized: soft cap missed, contributors may refund\n", id)
			}
			return nil
		},
	}
}

func launchClaimCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <launch-id>",
		Short: "Claim the tokens bought in a successful launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var res rpc.ClaimResult
			if err := o.send("launch_claim", rpc.LaunchIDParam{LaunchID: id}, &res); err != nil {
				return err
			}
			fmt.Printf("Claimed %d tokens from launch #%d\n", res.Tokens, id)
			return nil
		},
	}
}

func launchRefundCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <launch-id>",
		Short: "Withdraw the contribution to a failed launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("Request refund from launch #%d\n", id)
			if addr, err := o.ownAddress(); err == nil {
				var c lptypes.Contribution
				err := o.client().Call("launch_getContribution",
					rpc.ContributionParam{LaunchID: id, Address: addr.String()}, &c)
				if err != nil {
					return err
				}
				summary = fmt.Sprintf("Refund %s to %s from launch #%d\n",
					formatAmount(c.StxContributed), addr, id)
			}
			if ok, err := o.confirm(summary); err != nil || !ok {
				return err
			}
			var res rpc.RefundResult
			if err := o.send("launch_refund", rpc.LaunchIDParam{LaunchID: id}, &res); err != nil {
				return err
			}
			fmt.Printf("Refunded %s\n", formatAmount(res.Amount))
			return nil
		},
	}
}

func launchInfoCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info <launch-id>",
		Short: "Show a launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := getLaunch(o, id)
			if err != nil {
				return err
			}
			printLaunch(l)
			return nil
		},
	}
}

func launchStatsCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <launch-id>",
		Short: "Show launch progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var st lptypes.Stats
			if err := o.client().Call("launch_getStats", rpc.LaunchIDParam{LaunchID: id}, &st); err != nil {
				return err
			}
			fmt.Printf("Launch #%d  [%s]\n", st.LaunchID, st.Phase)
			fmt.Printf("  Raised:    %s of %s (soft cap %s)\n",
				formatAmount(st.TotalRaised), formatAmount(st.HardCap), formatAmount(st.SoftCap))
			fmt.Printf("  Progress:  %d.%02d%%\n", st.ProgressBps/100, st.ProgressBps%100)
			fmt.Printf("  Sold:      %d tokens\n", st.TokensSold)
			fmt.Printf("  Window:    blocks %d - %d\n", st.StartBlock, st.EndBlock)
			return nil
		},
	}
}

func launchContributionCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "contribution <launch-id> [address]",
		Short: "Show one contribution (default: the selected wallet)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			addr, err := o.addressArg(args[1:])
			if err != nil {
				return err
			}
			var c lptypes.Contribution
			err = o.client().Call("launch_getContribution",
				rpc.ContributionParam{LaunchID: id, Address: addr.String()}, &c)
			if err != nil {
				return err
			}
			printContribution(&c)
			return nil
		},
	}
}

func launchContributionsCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "contributions <launch-id>",
		Short: "List every contribution to a launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var res rpc.ContributionListResult
			if err := o.client().Call("launch_contributions", rpc.LaunchIDParam{LaunchID: id}, &res); err != nil {
				return err
			}
			fmt.Printf("%d contributions to launch #%d\n", len(res.Contributions), id)
			for _, c := range res.Contributions {
				fmt.Printf("  %s  %s  %d tokens  claimed=%v\n",
					c.Contributor, formatAmount(c.StxContributed), c.TokensAllocated, c.Claimed)
			}
			return nil
		},
	}
}

func launchListCmd(o *globalOpts) *cobra.Command {
	var from, limit uint64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List launches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.LaunchListResult
			if err := o.client().Call("launch_list", rpc.ListParam{From: from, Limit: limit}, &res); err != nil {
				return err
			}
			fmt.Printf("%d launches\n", res.Total)
			for _, l := range res.Launches {
				state := "open"
				switch {
				case l.IsFinalized && l.IsSuccessful:
					state = "successful"
				case l.IsFinalized:
					state = "failed"
				}
				fmt.Printf("  #%-5d %-10s %-32s raised %s / %s  blocks %d-%d  %s\n",
					l.ID, l.TokenSymbol, l.TokenName, formatAmount(l.TotalRaised),
					formatAmount(l.HardCap), l.StartBlock, l.EndBlock, state)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 1, "First launch id")
	cmd.Flags().Uint64Var(&limit, "limit", 20, "Maximum launches to show")
	return cmd
}

func launchFindCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "find [address]",
		Short: "Find every contribution of an address (default: the selected wallet)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := o.addressArg(args)
			if err != nil {
				return err
			}
			var res rpc.ContributionListResult
			err = o.client().Call("launch_findContributions", rpc.AddressParam{Address: addr.String()}, &res)
			if err != nil {
				return err
			}
			if len(res.Contributions) == 0 {
				fmt.Printf("No contributions from %s\n", addr)
				return nil
			}
			for _, c := range res.Contributions {
				printContribution(c)
			}
			return nil
		},
	}
}
