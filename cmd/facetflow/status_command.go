package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"facetflow/internal/direction"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize every direction in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			directions, err := direction.List(cfg.Paths.WorkingDir)
			if err != nil {
				return fmt.Errorf("list directions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(directions) == 0 {
				fmt.Fprintf(out, "No directions found under %s\n", cfg.StateDir())
				return nil
			}

			headers := []string{"Direction", "RA", "Dec", "Completed", "Last Operation", "Improving", "Amp Loop", "Max Residual (Jy)"}
			aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight}
			rows := make([][]string, 0, len(directions))
			for _, d := range directions {
				rows = append(rows, []string{
					d.Name,
					fmt.Sprintf("%.4f", d.RA),
					fmt.Sprintf("%.4f", d.Dec),
					fmt.Sprintf("%d", len(d.CompletedOperations)),
					lastOperation(d),
					yesNo(d.Improving),
					yesNo(d.LoopAmpSelfcal),
					fmt.Sprintf("%.3f", d.MaxResidualJy),
				})
			}

			fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))
			return nil
		},
	}
}

func lastOperation(d *direction.Direction) string {
	if len(d.CompletedOperations) == 0 {
		return "-"
	}
	return humanizeOperation(d.CompletedOperations[len(d.CompletedOperations)-1])
}

// humanizeOperation turns a stage-group identifier such as
// "facetselfcal" into a display name such as "Facet Selfcal".
func humanizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		return "-"
	}
	titler := cases.Title(language.Und)
	if rest := strings.TrimPrefix(operation, "facet"); rest != operation && rest != "" {
		return "Facet " + titler.String(rest)
	}
	return titler.String(operation)
}
