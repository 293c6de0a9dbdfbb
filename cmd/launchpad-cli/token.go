package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
)

func tokenCmd(o *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Deployed-token registry",
	}
	cmd.AddCommand(
		tokenRegisterCmd(o),
		tokenInfoCmd(o),
		tokenCountCmd(o),
		tokenListCmd(o),
	)
	return cmd
}

func tokenRegisterCmd(o *globalOpts) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "register <launch-id>",
		Short: "Bind a deployed token to a successful launch",
		Long: `Bind a deployed token to a successful launch. The registration repeats
the launch's name, symbol, supply and creator, which are read from the node.
Only the contract owner or the launch creator may register.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := getLaunch(o, id)
			if err != nil {
				return err
			}
			payload := rpc.RegisterTokenPayload{
				LaunchID: id,
				Token:    token,
				Name:     l.TokenName,
				Symbol:   l.TokenSymbol,
				Supply:   l.TotalSupply,
				Creator:  l.Creator.String(),
			}
			summary := fmt.Sprintf("Register token %s for launch #%d %s (%s)\n", token, id, l.TokenName, l.TokenSymbol)
			if ok, err := o.confirm(summary); err != nil || !ok {
				return err
			}
			var res rpc.RegisterTokenResult
			if err := o.send("launch_registerToken", payload, &res); err != nil {
				return err
			}
			fmt.Printf("Token %s registered for launch #%d\n", res.Token, res.LaunchID)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Deployed token id (32-byte hex)")
	cmd.MarkFlagRequired("token")
	return cmd
}

func tokenInfoCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info <launch-id>",
		Short: "Show the token registered for a launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var res rpc.TokenResult
			if err := o.client().Call("registry_getToken", rpc.LaunchIDParam{LaunchID: id}, &res); err != nil {
				return err
			}
			if !res.Found {
				fmt.Printf("No token registered for launch #%d\n", id)
				return nil
			}
			fmt.Printf("Launch #%d: %s\n", res.LaunchID, res.Token)
			return nil
		},
	}
}

func tokenCountCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of registered tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.CountResult
			if err := o.client().Call("registry_getCount", nil, &res); err != nil {
				return err
			}
			fmt.Printf("Registered tokens: %d\n", res.Count)
			return nil
		},
	}
}

func tokenListCmd(o *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.DeploymentListResult
			if err := o.client().Call("registry_list", nil, &res); err != nil {
				return err
			}
			if len(res.Deployments) == 0 {
				fmt.Println("No tokens registered")
				return nil
			}
			for _, d := range res.Deployments {
				fmt.Printf("#%-6d %s  by %s at height %d\n", d.LaunchID, d.Token, d.Registrar, d.RegisteredAt)
			}
			return nil
		},
	}
}
