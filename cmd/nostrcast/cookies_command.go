package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nostrcast/internal/cookies"
)

func newCookiesCommand(ctx *commandContext) *cobra.Command {
	cookiesCmd := &cobra.Command{
		Use:   "cookies",
		Short: "Cookie jar utilities",
	}

	cookiesCmd.AddCommand(newCookiesExportCommand(ctx))

	return cookiesCmd
}

func newCookiesExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export Firefox cookies to a Netscape cookie file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.StagingDir, "cookies.txt")
			}

			count, err := cookies.Export(cmd.Context(), target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cookies to %s\n", count, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination cookie file")
	return cmd
}
