package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect persisted direction state",
	}

	stateCmd.AddCommand(newStateShowCommand(ctx))

	return stateCmd
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <direction>",
		Short: "Print a direction's state snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.loadDirection(args[0])
			if err != nil {
				return err
			}

			payload, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return fmt.Errorf("encode state: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State file: %s\n", d.StateFile())
			fmt.Fprintln(out, string(payload))
			return nil
		},
	}
}
