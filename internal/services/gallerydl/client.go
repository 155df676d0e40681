package gallerydl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// File is one downloaded gallery entry with its info-json sidecar, when the
// downloader produced one.
type File struct {
	Path        string
	SidecarPath string
}

// Options configures a gallery download invocation.
type Options struct {
	CookieFile string
	// RangeLimit, when > 0, caps the download at the first N gallery
	// entries. Streaming searchers use it so the process stops at the
	// search window even when progress output is buffered.
	RangeLimit int
}

// Downloader defines the gallery download behaviour the resolver needs.
// onLine receives each progress line as the downloader emits it, letting
// callers react (or cancel) before the full gallery is materialized.
type Downloader interface {
	Download(ctx context.Context, url, destDir string, opts Options, onLine func(string)) ([]File, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the gallery-dl command-line downloader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "gallery-dl"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Download fetches the gallery at url into destDir, streaming progress lines
// to onLine. The returned set reflects what is on disk after the process
// exits, which may include files fully written before a cancellation.
func (c *CLI) Download(ctx context.Context, url, destDir string, opts Options, onLine func(string)) ([]File, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("url required")
	}
	if strings.TrimSpace(destDir) == "" {
		return nil, errors.New("destination directory required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	args := []string{"-D", destDir, "--write-info-json"}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	if opts.RangeLimit > 0 {
		args = append(args, "--range", "1-"+strconv.Itoa(opts.RangeLimit))
	}
	args = append(args, url)

	cmd := commandContext(ctx, c.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start gallery-dl: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(strings.TrimSpace(scanner.Text()))
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	files, listErr := CollectFiles(destDir)
	if listErr != nil {
		return nil, listErr
	}

	// A cancelled download is not an error for the caller who cancelled it
	// on purpose; surface what made it to disk alongside the context error.
	if ctx.Err() != nil {
		return files, ctx.Err()
	}
	if waitErr != nil {
		return files, fmt.Errorf("gallery-dl download: %w: %s", waitErr, tail(stderr.String(), 6))
	}
	if scanErr != nil {
		return files, fmt.Errorf("read gallery-dl output: %w", scanErr)
	}
	if len(files) == 0 {
		return nil, errors.New("gallery-dl produced no files")
	}
	return files, nil
}

// CollectFiles enumerates the media files (and their sidecars) currently in
// dir, ordered by name.
func CollectFiles(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("inspect gallery outputs: %w", err)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file := File{Path: path}
		if sidecar := path + ".json"; fileExists(sidecar) {
			file.SidecarPath = sidecar
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func tail(text string, lines int) string {
	all := strings.Split(strings.TrimSpace(text), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

var _ Downloader = (*CLI)(nil)
