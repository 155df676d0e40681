package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"nostrcast/internal/fallback"
	"nostrcast/internal/logging"
	"nostrcast/internal/media"
	"nostrcast/internal/services"
	"nostrcast/internal/services/gallerydl"
	"nostrcast/internal/services/ytdlp"
)

// Options configures acquisition behaviour for a run.
type Options struct {
	FormatPreference []string
	CookieFile       string
	MaxGallerySearch int
	// UseExtractedCaptions controls whether downloader metadata captions
	// are folded into the item caption.
	UseExtractedCaptions bool
	RequestTimeout       time.Duration
}

// Request is one top-level input to resolve.
type Request struct {
	// Input is a URL or a local file path.
	Input string
	// GalleryID to stamp on every produced item.
	GalleryID int
	// Description supplied by the operator for this input.
	Description string
	// StagingDir receives downloaded files.
	StagingDir string
}

// Resolver turns one input into a gallery of local media items by walking
// the acquisition strategy ladder.
type Resolver struct {
	video      ytdlp.Downloader
	gallery    gallerydl.Downloader
	httpClient *http.Client
	opts       Options
	logger     *slog.Logger
}

// New constructs a resolver around the downloader collaborators.
func New(video ytdlp.Downloader, gallery gallerydl.Downloader, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{
		video:      video,
		gallery:    gallery,
		httpClient: &http.Client{Timeout: timeout},
		opts:       opts,
		logger:     logger.With(logging.FieldComponent, "resolver"),
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, req Request) ([]media.Item, error)
}

// Resolve materializes the input as one gallery of local files. Local
// paths are validated and passed through; URLs walk the strategy ladder
// until one produces files.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]media.Item, error) {
	if isLocalPath(req.Input) {
		return r.resolveLocal(req)
	}

	strategies := r.strategies(req.Input)
	items, err := fallback.TryInOrder(ctx, strategies, func(ctx context.Context, s strategy) ([]media.Item, error) {
		r.logger.Info("trying strategy", "strategy", s.name, "input", req.Input)
		items, runErr := s.run(ctx, req)
		if runErr != nil {
			if services.IsFatal(runErr) {
				return nil, fallback.Abort(runErr)
			}
			return nil, fmt.Errorf("%s: %w", s.name, runErr)
		}
		return items, nil
	})
	if err != nil {
		if services.IsFatal(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrAcquisitionExhausted, "resolver", "resolve",
			fmt.Sprintf("every strategy failed for %s", req.Input), err)
	}
	return items, nil
}

func (r *Resolver) strategies(input string) []strategy {
	var ladder []strategy
	if !IsPhotoURL(input) && !IsMobileShareURL(input) {
		ladder = append(ladder, strategy{name: "video", run: r.videoFirst})
	}
	ladder = append(ladder, strategy{name: "gallery", run: r.galleryDownload})
	if IsMobileShareURL(input) {
		ladder = append(ladder, strategy{name: "share-resolve", run: r.shareResolve})
	}
	ladder = append(ladder, strategy{name: "og-image", run: r.ogFallback})
	return ladder
}

func (r *Resolver) resolveLocal(req Request) ([]media.Item, error) {
	info, err := os.Stat(req.Input)
	if err != nil || !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrInvalidInput, "resolver", "local",
			fmt.Sprintf("local file %s does not exist", req.Input), err)
	}
	if _, _, err := media.Sniff(req.Input); err != nil {
		return nil, err
	}
	return []media.Item{{
		Source:    req.Input,
		GalleryID: req.GalleryID,
		LocalFile: req.Input,
		Caption:   media.ComposeCaption(req.Description, ""),
	}}, nil
}

func (r *Resolver) videoFirst(ctx context.Context, req Request) ([]media.Item, error) {
	result, err := r.video.Download(ctx, req.Input, ytdlp.Options{
		DestDir:          req.StagingDir,
		FormatPreference: r.opts.FormatPreference,
		CookieFile:       r.opts.CookieFile,
	})
	if err != nil {
		return nil, err
	}
	caption := r.composeCaption(req.Description, result.Description)
	return []media.Item{{
		Source:    req.Input,
		GalleryID: req.GalleryID,
		LocalFile: result.FilePath,
		Caption:   caption,
		SourceURL: req.Input,
	}}, nil
}

func (r *Resolver) galleryDownload(ctx context.Context, req Request) ([]media.Item, error) {
	downloadURL := req.Input
	opts := gallerydl.Options{CookieFile: r.opts.CookieFile}

	// A set parameter often breaks gallery extraction; the simplified URL
	// is tried first and adopted when it works.
	if stripped, changed := StripSetParam(downloadURL); changed {
		if items, err := r.galleryFetch(ctx, req, stripped, opts); err == nil {
			return items, nil
		}
		r.logger.Debug("simplified URL failed, retrying original", "url", downloadURL)
	}

	if targetID := TargetID(downloadURL); targetID != "" {
		return r.gallerySearch(ctx, req, downloadURL, targetID, opts)
	}
	return r.galleryFetch(ctx, req, downloadURL, opts)
}

func (r *Resolver) galleryFetch(ctx context.Context, req Request, downloadURL string, opts gallerydl.Options) ([]media.Item, error) {
	destDir, err := os.MkdirTemp(req.StagingDir, "gallery-")
	if err != nil {
		return nil, err
	}
	files, err := r.gallery.Download(ctx, downloadURL, destDir, opts, nil)
	if err != nil {
		return nil, err
	}
	return r.itemsFromFiles(req, files), nil
}

func (r *Resolver) gallerySearch(ctx context.Context, req Request, downloadURL, targetID string, opts gallerydl.Options) ([]media.Item, error) {
	searchDir, err := os.MkdirTemp(req.StagingDir, "search-")
	if err != nil {
		return nil, err
	}
	match, err := searchByID(ctx, r.gallery, r.logger, downloadURL, targetID, searchDir, req.StagingDir, opts, r.opts.MaxGallerySearch)
	if err != nil {
		return nil, err
	}
	os.RemoveAll(searchDir)
	return r.itemsFromFiles(req, []gallerydl.File{match}), nil
}

// shareResolve follows a compact share link's redirect to the canonical
// photo page and downloads from there. A resolved URL that still carries a
// set id is a shape gallery tooling cannot handle, so the ladder falls
// through to the open-graph strategy with the original URL.
func (r *Resolver) shareResolve(ctx context.Context, req Request) ([]media.Item, error) {
	resolved, err := ResolveShareURL(ctx, r.httpClient, req.Input)
	if err != nil {
		return nil, fmt.Errorf("resolve share link: %w", err)
	}
	if HasSetParam(resolved) {
		return nil, fmt.Errorf("share link resolved to a set URL (%s)", resolved)
	}
	r.logger.Info("share link resolved", "resolved", resolved)

	resolvedReq := req
	resolvedReq.Input = resolved
	return r.galleryDownload(ctx, resolvedReq)
}

func (r *Resolver) ogFallback(ctx context.Context, req Request) ([]media.Item, error) {
	preview, err := FetchPreview(ctx, r.httpClient, req.Input)
	if err != nil {
		return nil, fmt.Errorf("open-graph preview: %w", err)
	}
	path, err := DownloadImage(ctx, r.httpClient, preview.ImageURL, req.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("download preview image: %w", err)
	}
	if _, _, err := media.Sniff(path); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("preview download is not media: %w", err)
	}
	return []media.Item{{
		Source:    req.Input,
		GalleryID: req.GalleryID,
		LocalFile: path,
		Caption:   r.composeCaption(req.Description, preview.Description),
		SourceURL: req.Input,
	}}, nil
}

// itemsFromFiles stamps gallery metadata onto the downloaded files. The
// aggregated caption lands on the last item of a multi-file gallery; every
// other slot stays empty.
func (r *Resolver) itemsFromFiles(req Request, files []gallerydl.File) []media.Item {
	captions := make([]string, len(files))
	for i, file := range files {
		if file.SidecarPath == "" {
			continue
		}
		if data, err := os.ReadFile(file.SidecarPath); err == nil {
			captions[i] = sidecarCaption(data)
		}
	}
	aggregated := r.composeCaption(req.Description, media.AggregateCaptions(captions))

	items := make([]media.Item, len(files))
	for i, file := range files {
		items[i] = media.Item{
			Source:     req.Input,
			GalleryID:  req.GalleryID,
			OrderIndex: i,
			LocalFile:  file.Path,
			SourceURL:  req.Input,
		}
	}
	if len(items) > 0 {
		items[len(items)-1].Caption = aggregated
	}
	return items
}

func (r *Resolver) composeCaption(description, extracted string) string {
	if !r.opts.UseExtractedCaptions {
		extracted = ""
	}
	return media.ComposeCaption(description, extracted)
}

func isLocalPath(input string) bool {
	if _, err := os.Stat(input); err == nil {
		return true
	}
	return false
}
