package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"nostrcast/internal/compose"
	"nostrcast/internal/fileutil"
	"nostrcast/internal/history"
	"nostrcast/internal/logging"
	"nostrcast/internal/media"
	"nostrcast/internal/notifications"
	"nostrcast/internal/publish"
	"nostrcast/internal/resolver"
	"nostrcast/internal/services"
	"nostrcast/internal/transcode"
	"nostrcast/internal/upload"
)

// Acquirer resolves one input into local media items.
type Acquirer interface {
	Resolve(ctx context.Context, req resolver.Request) ([]media.Item, error)
}

// Converter re-encodes incompatible video, writing converted files into the
// given output directory.
type Converter interface {
	Process(ctx context.Context, input, outputDir string) (transcode.Result, error)
}

// Uploader pushes files through the sink chain.
type Uploader interface {
	UploadAll(ctx context.Context, files []string) ([]upload.UploadedFile, error)
}

// Broadcaster signs and broadcasts the composed post.
type Broadcaster interface {
	Publish(ctx context.Context, post compose.Post) (publish.Receipt, error)
}

// Options configures a pipeline.
type Options struct {
	StagingDir string
	// TranscodeEnabled toggles the conversion step entirely.
	TranscodeEnabled bool
	ShowSources      bool
	NSFW             bool
}

// Request is one pipeline run.
type Request struct {
	// Inputs are URLs or local file paths, processed strictly in order.
	Inputs []string
	// Description is appended to the composed post and folded into captions.
	Description string
	// Source overrides the per-input source attribution when set.
	Source string
}

// Outcome reports a completed run.
type Outcome struct {
	Receipt  publish.Receipt
	Content  string
	Uploaded []upload.UploadedFile
	Items    []media.Item
}

// Pipeline orchestrates one full acquire/transcode/upload/publish run.
type Pipeline struct {
	acquirer    Acquirer
	converter   Converter
	uploader    Uploader
	broadcaster Broadcaster
	ledger      *history.Ledger
	notifier    notifications.Service
	opts        Options
	logger      *slog.Logger
}

// New constructs a pipeline from its collaborators. notifier may be nil.
func New(acquirer Acquirer, converter Converter, uploader Uploader, broadcaster Broadcaster,
	ledger *history.Ledger, notifier notifications.Service, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		acquirer:    acquirer,
		converter:   converter,
		uploader:    uploader,
		broadcaster: broadcaster,
		ledger:      ledger,
		notifier:    notifier,
		opts:        opts,
		logger:      logger.With(logging.FieldComponent, "pipeline"),
	}
}

// Run processes every input sequentially: resolve, transcode, dedup-check,
// upload, compose, publish, and finally commit the ledger. Nothing is
// written to the ledger unless the whole run succeeds; temp files are
// removed whichever way the run ends.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	if len(req.Inputs) == 0 {
		return Outcome{}, services.Wrap(services.ErrInvalidInput, "pipeline", "run", "no inputs", nil)
	}

	unlock, err := p.acquireRunLock()
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	runID := uuid.NewString()
	runDir := filepath.Join(p.opts.StagingDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Outcome{}, services.Wrap(services.ErrExternalTool, "pipeline", "run", "create staging directory", err)
	}
	cleanup := NewCleanupRegistry(p.logger)
	cleanup.Register(runDir)
	defer cleanup.Run()

	ctx = services.WithRunID(ctx, runID)
	logger := p.logger.With(logging.FieldRunID, runID)
	logger.Info("run started", "inputs", len(req.Inputs))

	outcome, err := p.run(ctx, req, runDir, logger)
	if err != nil {
		if p.notifier != nil {
			_ = p.notifier.NotifyError(ctx, err, "pipeline run")
		}
		return Outcome{}, err
	}
	if p.notifier != nil {
		_ = p.notifier.NotifyPublished(ctx, outcome.Receipt.Nevent, len(outcome.Uploaded))
	}
	logger.Info("run complete", "event_id", outcome.Receipt.EventID, "files", len(outcome.Uploaded))
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, runDir string, logger *slog.Logger) (Outcome, error) {
	state := &State{}

	for _, input := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if err := p.processInput(ctx, req, state, input, runDir, logger); err != nil {
			return Outcome{}, err
		}
	}
	if len(state.Items) == 0 {
		return Outcome{}, services.Wrap(services.ErrAcquisitionExhausted, "pipeline", "run", "no media acquired", nil)
	}

	uploaded, err := p.uploader.UploadAll(ctx, state.Files())
	if err != nil {
		return Outcome{}, err
	}

	urls, captions, galleryIDs, sources := state.ComposeSequences(uploaded)
	post, err := compose.Build(compose.Input{
		URLs:        urls,
		Captions:    captions,
		GalleryIDs:  galleryIDs,
		Sources:     sources,
		Description: req.Description,
		ShowSources: p.opts.ShowSources,
		NSFW:        p.opts.NSFW,
	})
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrInvalidInput, "pipeline", "compose", "compose post", err)
	}

	receipt, err := p.broadcaster.Publish(ctx, post)
	if err != nil {
		return Outcome{}, err
	}

	if err := p.ledger.Commit(state.Tokens); err != nil {
		// The event is out and irreversible; a failed commit only weakens
		// future dedup, so it is surfaced without failing the run.
		logger.Warn("history commit failed", "error", err)
	}

	return Outcome{
		Receipt:  receipt,
		Content:  post.Content,
		Uploaded: uploaded,
		Items:    state.Items,
	}, nil
}

func (p *Pipeline) processInput(ctx context.Context, req Request, state *State, input, runDir string, logger *slog.Logger) error {
	ctx = services.WithInput(ctx, input)

	token := precheckToken(input)
	if token != "" {
		if err := p.ledger.Check(token); err != nil {
			return err
		}
	}

	// The run description is appended once by the composer; item captions
	// carry only downloader metadata.
	items, err := p.acquirer.Resolve(ctx, resolver.Request{
		Input:      input,
		GalleryID:  state.NextGalleryID(),
		StagingDir: runDir,
	})
	if err != nil {
		return err
	}

	for i := range items {
		if req.Source != "" {
			items[i].SourceURL = req.Source
		}
		path, err := p.prepareFile(ctx, items[i].LocalFile, runDir, logger)
		if err != nil {
			return err
		}
		items[i].LocalFile = path

		hash, err := fileutil.HashFile(path)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "pipeline", "hash", path, err)
		}
		if err := p.ledger.Check(hash); err != nil {
			return err
		}
		state.AddToken(hash)
	}

	if token != "" {
		state.AddToken(token)
	}
	state.AddItems(items)
	return nil
}

// prepareFile converts video files with incompatible codecs, returning the
// file to carry forward. Converted files go into runDir so local inputs
// never get a sibling file; the run cleanup reclaims everything.
func (p *Pipeline) prepareFile(ctx context.Context, path, runDir string, logger *slog.Logger) (string, error) {
	kind, _, err := media.Sniff(path)
	if err != nil {
		return "", err
	}
	if kind != media.KindVideo || !p.opts.TranscodeEnabled {
		return path, nil
	}
	result, err := p.converter.Process(ctx, path, runDir)
	if err != nil {
		return "", err
	}
	if result.Converted {
		logger.Info("video converted", "from", result.SourceCodec, "encoder", result.Encoder)
	}
	return result.Path, nil
}

// acquireRunLock guards against concurrent runs sharing the staging area
// and ledger.
func (p *Pipeline) acquireRunLock() (func(), error) {
	if err := os.MkdirAll(p.opts.StagingDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "lock", "create staging directory", err)
	}
	lock := flock.New(filepath.Join(p.opts.StagingDir, "nostrcast.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "lock", "acquire run lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrExternalTool, "pipeline", "lock", "another run is already in progress", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release run lock", "error", err)
		}
	}, nil
}

// precheckToken derives the pre-acquisition ledger token for an input.
// Short numeric filenames are too generic to check.
func precheckToken(input string) string {
	if isURL(input) {
		return history.URLToken(input)
	}
	name := history.FilenameToken(input)
	if history.SkipPrecheck(name) {
		return ""
	}
	return name
}

func isURL(input string) bool {
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
