package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nostrcast/internal/fileutil"
	"nostrcast/internal/services/gallerydl"
)

const (
	sidecarPollAttempts = 15
	sidecarPollInterval = 200 * time.Millisecond
)

// searchByID streams a gallery download looking for the entry whose
// sidecar id matches targetID, stopping the download as soon as it is
// found or after maxSearch files. The matched file and its sidecar are
// copied out of searchDir into destDir so the partial download directory
// can be discarded wholesale.
func searchByID(ctx context.Context, downloader gallerydl.Downloader, logger *slog.Logger,
	rawURL, targetID, searchDir, destDir string, opts gallerydl.Options, maxSearch int) (gallerydl.File, error) {

	if maxSearch <= 0 {
		maxSearch = 40
	}
	// The downloader stops at the search window on its own; the cancel
	// below only shortens that when the streamed sidecars settle it early.
	opts.RangeLimit = maxSearch

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var match gallerydl.File
	seen := 0
	onLine := func(line string) {
		if match.Path != "" || searchCtx.Err() != nil {
			return
		}
		path := pathFromProgressLine(line, searchDir)
		if path == "" {
			return
		}
		seen++
		if sidecarMatches(searchCtx, path+".json", targetID) {
			match = gallerydl.File{Path: path, SidecarPath: path + ".json"}
			logger.Info("target found while streaming", "file", filepath.Base(path), "searched", seen)
			cancel()
			return
		}
		if seen >= maxSearch {
			logger.Info("search limit reached", "searched", seen)
			cancel()
		}
	}

	files, err := downloader.Download(searchCtx, rawURL, searchDir, opts, onLine)
	if err != nil && searchCtx.Err() == nil {
		return gallerydl.File{}, err
	}

	// The stream can end without a hit when the downloader buffers its
	// progress output; one pass over what landed on disk settles it.
	if match.Path == "" {
		for _, file := range files {
			if file.SidecarPath != "" && sidecarMatches(ctx, file.SidecarPath, targetID) {
				match = file
				break
			}
		}
	}
	if match.Path == "" {
		return gallerydl.File{}, fmt.Errorf("id %s not found within first %d gallery entries", targetID, maxSearch)
	}

	copied, err := copyMatch(match, destDir)
	if err != nil {
		return gallerydl.File{}, err
	}
	return copied, nil
}

// pathFromProgressLine extracts a positional media filename (N.ext) from a
// downloader progress line, returning its absolute path inside dir.
func pathFromProgressLine(line, dir string) string {
	line = strings.TrimSpace(strings.TrimPrefix(line, "# "))
	if line == "" || strings.HasSuffix(line, ".json") {
		return ""
	}
	base := filepath.Base(line)
	if !positionalNamePattern.MatchString(base) {
		return ""
	}
	return filepath.Join(dir, base)
}

// sidecarMatches polls for the sidecar to appear (the downloader writes it
// after the media file) and compares its id against targetID.
func sidecarMatches(ctx context.Context, sidecarPath, targetID string) bool {
	for attempt := 0; attempt < sidecarPollAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		data, err := os.ReadFile(sidecarPath)
		if err == nil && len(data) > 0 {
			return sidecarID(data) == targetID
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sidecarPollInterval):
		}
	}
	return false
}

// sidecarID pulls the media id out of an info-json document. Ids appear as
// strings or numbers depending on the extractor.
func sidecarID(data []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"id", "media_id", "photo_id"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var asString string
		if err := json.Unmarshal(raw, &asString); err == nil {
			return asString
		}
		var asNumber json.Number
		if err := json.Unmarshal(raw, &asNumber); err == nil {
			return asNumber.String()
		}
	}
	return ""
}

// sidecarCaption pulls caption-like text out of an info-json document.
func sidecarCaption(data []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"description", "content", "caption", "title"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

func copyMatch(match gallerydl.File, destDir string) (gallerydl.File, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return gallerydl.File{}, err
	}
	destFile := filepath.Join(destDir, filepath.Base(match.Path))
	if err := fileutil.CopyFile(match.Path, destFile); err != nil {
		return gallerydl.File{}, fmt.Errorf("copy matched file: %w", err)
	}
	copied := gallerydl.File{Path: destFile}
	if match.SidecarPath != "" && fileutil.NonEmpty(match.SidecarPath) {
		destSidecar := destFile + ".json"
		if err := fileutil.CopyFile(match.SidecarPath, destSidecar); err != nil {
			return gallerydl.File{}, fmt.Errorf("copy matched sidecar: %w", err)
		}
		copied.SidecarPath = destSidecar
	}
	return copied, nil
}
