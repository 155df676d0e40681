package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nostrcast/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set relays and secret_key_file before publishing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"staging_dir", cfg.Paths.StagingDir},
				{"log_dir", cfg.Paths.LogDir},
				{"history_file", cfg.Paths.HistoryFile},
				{"filedrop_url", cfg.Upload.FiledropURL},
				{"blossom_servers", strings.Join(cfg.Upload.BlossomServers, ", ")},
				{"relays", strings.Join(cfg.Publish.Relays, ", ")},
				{"pow_difficulty", fmt.Sprintf("%d", cfg.Publish.PowDifficulty)},
				{"send_to_relays", yesNo(cfg.Publish.SendToRelays)},
				{"transcode", yesNo(cfg.Transcode.Enabled)},
				{"h265", yesNo(cfg.Transcode.H265Enabled)},
				{"hardware_encoding", yesNo(cfg.Transcode.HardwareEnabled)},
				{"cookie_source", cfg.Download.CookieSource},
				{"format_preference", strings.Join(cfg.Download.FormatPreference, ", ")},
				{"dedup", yesNo(cfg.Dedup.Enabled)},
				{"ntfy_topic", cfg.Notifications.NtfyTopic},
				{"log_format", cfg.Logging.Format},
				{"log_level", cfg.Logging.Level},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}
