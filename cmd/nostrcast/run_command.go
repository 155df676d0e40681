package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nostrcast/internal/cookies"
	"nostrcast/internal/history"
	"nostrcast/internal/logging"
	"nostrcast/internal/notifications"
	"nostrcast/internal/pipeline"
	"nostrcast/internal/publish"
	"nostrcast/internal/resolver"
	"nostrcast/internal/services/ffmpeg"
	"nostrcast/internal/services/gallerydl"
	"nostrcast/internal/services/nak"
	"nostrcast/internal/services/ytdlp"
	"nostrcast/internal/transcode"
	"nostrcast/internal/upload"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		description  string
		source       string
		cookieSource string
		encoders     []string
		noConvert    bool
		signOnly     bool
		noDedup      bool
		noCaptions   bool
		showSources  bool
		nsfw         bool
	)

	cmd := &cobra.Command{
		Use:   "run <url|path>... [-- <description> [source]]",
		Short: "Acquire media, upload it, and publish a post",
		Long: `Run the full pipeline for one post: download or copy each input,
re-encode incompatible video, upload everything through the configured sink
chain, and sign and broadcast the composed event. Inputs keep their order in
the post body.

Arguments after -- are the post description and an optional source
attribution, equivalent to --description and --source.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				rest := args[dash:]
				inputs = args[:dash]
				if len(rest) > 0 && description == "" {
					description = rest[0]
				}
				if len(rest) > 1 && source == "" {
					source = rest[1]
				}
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no inputs before --")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			jar := cookieSource
			if jar == "" {
				jar = cfg.Download.CookieSource
			}
			cookieFile, err := cookies.Resolve(runCtx, jar, cfg.Paths.StagingDir)
			if err != nil {
				return err
			}

			secret, err := publish.LoadSecretKey(cfg.Publish.SecretKeyFile)
			if err != nil {
				return err
			}

			signer := nak.NewCLI(nak.WithBinary(cfg.Publish.NakBinary))
			acquirer := resolver.New(
				ytdlp.NewCLI(ytdlp.WithBinary(cfg.Download.YtdlpBinary)),
				gallerydl.NewCLI(gallerydl.WithBinary(cfg.Download.GalleryDLBinary)),
				resolver.Options{
					FormatPreference:     cfg.Download.FormatPreference,
					CookieFile:           cookieFile,
					MaxGallerySearch:     cfg.Download.MaxGallerySearch,
					UseExtractedCaptions: !noCaptions,
				},
				logger,
			)

			overrides := encoders
			if len(overrides) == 0 {
				overrides = cfg.Transcode.Encoders
			}
			planner := transcode.NewPlanner(
				ffmpeg.NewCLI(
					ffmpeg.WithFFmpegBinary(cfg.Transcode.FFmpegBinary),
					ffmpeg.WithFFprobeBinary(cfg.Transcode.FFprobeBinary),
				),
				logger,
				transcode.Options{
					H265Enabled:     cfg.Transcode.H265Enabled,
					HardwareEnabled: cfg.Transcode.HardwareEnabled,
					Overrides:       overrides,
				},
			)

			chain := upload.NewChain(upload.Options{
				FiledropURL:    cfg.Upload.FiledropURL,
				BlossomServers: cfg.Upload.BlossomServers,
				SecretKey:      secret,
				RequestTimeout: time.Duration(cfg.Upload.RequestTimeout) * time.Second,
			}, signer, logger)

			publisher := publish.NewPublisher(signer, publish.Options{
				Relays:        cfg.Publish.Relays,
				PowDifficulty: cfg.Publish.PowDifficulty,
				SecretKey:     secret,
				SendToRelays:  cfg.Publish.SendToRelays && !signOnly,
			}, logger)

			ledger := history.Open(cfg.Paths.HistoryFile, cfg.Dedup.Enabled && !noDedup)
			notifier := notifications.NewService(cfg)

			pipe := pipeline.New(acquirer, planner, chain, publisher, ledger, notifier, pipeline.Options{
				StagingDir:       cfg.Paths.StagingDir,
				TranscodeEnabled: cfg.Transcode.Enabled && !noConvert,
				ShowSources:      showSources,
				NSFW:             nsfw,
			}, logger)

			outcome, err := pipe.Run(runCtx, pipeline.Request{
				Inputs:      inputs,
				Description: description,
				Source:      source,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, outcome.Content)
			if outcome.Receipt.Nevent != "" {
				fmt.Fprintf(out, "\n%s\n", outcome.Receipt.Nevent)
			} else if outcome.Receipt.EventID != "" {
				fmt.Fprintf(out, "\nevent id: %s\n", outcome.Receipt.EventID)
			}
			if !outcome.Receipt.Broadcast {
				fmt.Fprintln(out, "Signed only; event was not sent to relays")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Text appended to the post body")
	cmd.Flags().StringVar(&source, "source", "", "Source attribution overriding the input URLs")
	cmd.Flags().StringVar(&cookieSource, "cookie-source", "", "Cookie source: firefox or file:<path>")
	cmd.Flags().StringSliceVar(&encoders, "encoders", nil, "Explicit encoder ladder, replacing auto-detection")
	cmd.Flags().BoolVar(&noConvert, "no-convert", false, "Upload videos as acquired without re-encoding")
	cmd.Flags().BoolVar(&signOnly, "sign-only", false, "Sign the event but do not broadcast it")
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "Skip duplicate checks and do not record this run")
	cmd.Flags().BoolVar(&noCaptions, "no-captions", false, "Ignore captions extracted by the downloaders")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "Append a source listing to the post body")
	cmd.Flags().BoolVar(&nsfw, "nsfw", false, "Tag the event with a content warning")

	return cmd
}
