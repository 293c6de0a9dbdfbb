package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/klingnet-launchpad/internal/rpc"
)

func adminCmd(o *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Owner-only controls",
	}
	cmd.AddCommand(
		adminPauseCmd(o, "pause", true),
		adminPauseCmd(o, "unpause", false),
	)
	return cmd
}

func adminPauseCmd(o *globalOpts, use string, paused bool) *cobra.Command {
	short := "Stop launch creation and purchases"
	if !paused {
		short = "Resume launch creation and purchases"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, err := o.confirm(short + "\n"); err != nil || !ok {
				return err
			}
			var res rpc.PauseResult
			if err := o.send("admin_pause", rpc.PausePayload{Paused: paused}, &res); err != nil {
				return err
			}
			fmt.Printf("Paused: %v\n", res.Paused)
			return nil
		},
	}
}
