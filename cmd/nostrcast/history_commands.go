package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nostrcast/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the dedup history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryAddCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded history tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger := history.Open(cfg.Paths.HistoryFile, true)
			tokens, err := ledger.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tokens) == 0 {
				fmt.Fprintln(out, "History is empty")
				return nil
			}
			for _, token := range tokens {
				fmt.Fprintln(out, token)
			}
			fmt.Fprintf(out, "\n%d entries\n", len(tokens))
			return nil
		},
	}
}

func newHistoryAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <token>...",
		Short: "Record tokens without running the pipeline",
		Long: `Record URLs, filenames, or hashes directly so future runs treat
them as already published. URLs are normalized the same way the pipeline
normalizes them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ledger := history.Open(cfg.Paths.HistoryFile, true)
			tokens := make([]string, 0, len(args))
			for _, arg := range args {
				token := strings.TrimSpace(arg)
				if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
					token = history.URLToken(token)
				}
				if token == "" {
					continue
				}
				hit, err := ledger.Exists(token)
				if err != nil {
					return err
				}
				if hit {
					fmt.Fprintf(cmd.OutOrStdout(), "Already recorded: %s\n", token)
					continue
				}
				tokens = append(tokens, token)
			}
			if len(tokens) == 0 {
				return nil
			}
			if err := ledger.Commit(tokens); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d tokens\n", len(tokens))
			return nil
		},
	}
}
