package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"facetflow/internal/runledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <direction>",
		Short: "Show recorded action runs for a direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger, err := runledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			runs, err := ledger.ListByDirection(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintf(out, "No recorded runs for direction %q\n", args[0])
				return nil
			}

			headers := []string{"Run", "Operation", "Action", "Status", "Updated", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.ID),
					run.Operation,
					run.Action,
					string(run.Status),
					formatTimestamp(run.UpdatedAt),
					truncateMessage(run.ErrorMessage, 60),
				})
			}

			fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many runs (0 = all)")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateMessage(message string, max int) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return "-"
	}
	if len(message) <= max {
		return message
	}
	return message[:max-1] + "…"
}
