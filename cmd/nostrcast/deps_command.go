package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nostrcast/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "found"
				detail := status.Description
				version := ""
				if status.Available {
					version = deps.Version(cmd.Context(), status.Command)
				} else {
					state = "missing"
					missing++
					if status.Detail != "" {
						detail = status.Detail
					}
				}
				rows = append(rows, []string{status.Name, status.Command, version, state, detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Version", "Status", "Notes"}, rows))

			colorize := shouldColorize(out)
			if missing > 0 {
				fmt.Fprintln(out, renderStatusLine("dependencies", statusError,
					fmt.Sprintf("%d of %d tools missing", missing, len(statuses)), colorize))
				return fmt.Errorf("%d required tools missing", missing)
			}
			fmt.Fprintln(out, renderStatusLine("dependencies", statusOK, "all tools available", colorize))
			return nil
		},
	}
}
