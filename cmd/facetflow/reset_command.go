package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"facetflow/internal/config"
)

// resetOperations is the stage-group set a reset rolls back. Ingest and
// field-wide preparation stages are deliberately excluded: resetting a
// single direction must never touch shared upstream products.
var resetOperations = []string{"facetselfcal", "facetimage", "facetcheck"}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <direction>",
		Short: "Roll back a direction's facet stages so they rerun",
		Long: "Reset clears the completion records for the facet stage groups (" +
			strings.Join(resetOperations, ", ") +
			") of one direction and removes that direction's stage output directories. Other directions are untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return ctx.withWorkspaceLock(func(cfg *config.Config) error {
				d, err := ctx.loadDirection(name)
				if err != nil {
					return err
				}

				if err := d.Reset(resetOperations); err != nil {
					return fmt.Errorf("reset direction %q: %w", name, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s for direction %s\n", strings.Join(resetOperations, ", "), name)
				return nil
			})
		},
	}
}
