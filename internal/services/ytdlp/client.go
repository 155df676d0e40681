package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Result describes a completed video download.
type Result struct {
	FilePath    string
	Description string
}

// Options configures a single download invocation.
type Options struct {
	DestDir          string
	FormatPreference []string
	CookieFile       string
}

// Downloader defines the video download behaviour the resolver needs.
type Downloader interface {
	Download(ctx context.Context, url string, opts Options) (Result, error)
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

// CLI wraps the yt-dlp command-line downloader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Download fetches url into opts.DestDir and returns the downloaded file
// plus any description text the extractor surfaced. Success requires a
// non-empty output file.
func (c *CLI) Download(ctx context.Context, url string, opts Options) (Result, error) {
	if strings.TrimSpace(url) == "" {
		return Result{}, errors.New("url required")
	}
	if strings.TrimSpace(opts.DestDir) == "" {
		return Result{}, errors.New("destination directory required")
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"--write-description",
		"--print", "after_move:filepath",
		"-o", filepath.Join(opts.DestDir, "%(id)s.%(ext)s"),
	}
	if sort := formatSort(opts.FormatPreference); sort != "" {
		args = append(args, "-S", sort)
	}
	if opts.CookieFile != "" {
		args = append(args, "--cookies", opts.CookieFile)
	}
	args = append(args, url)

	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("yt-dlp download: %w: %s", err, tail(stderr.String(), 6))
	}

	filePath := lastLine(stdout.String())
	if filePath == "" {
		return Result{}, errors.New("yt-dlp reported no output file")
	}
	info, err := os.Stat(filePath)
	if err != nil || info.Size() == 0 {
		return Result{}, fmt.Errorf("yt-dlp output file %s is missing or empty", filePath)
	}

	return Result{FilePath: filePath, Description: readDescription(filePath)}, nil
}

// formatSort translates the configured codec preference order into a yt-dlp
// format sort expression. "best" terminates the ladder.
func formatSort(preference []string) string {
	fields := make([]string, 0, len(preference))
	for _, entry := range preference {
		switch strings.ToLower(strings.TrimSpace(entry)) {
		case "hevc", "h265":
			fields = append(fields, "vcodec:hevc")
		case "avc", "h264":
			fields = append(fields, "vcodec:avc")
		case "best", "":
			// Default ranking; nothing to add.
		}
	}
	return strings.Join(fields, ",")
}

// readDescription picks up the sidecar yt-dlp writes for --write-description.
func readDescription(filePath string) string {
	base := strings.TrimSuffix(filePath, filepath.Ext(filePath))
	data, err := os.ReadFile(base + ".description")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func lastLine(output string) string {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	return last
}

func tail(text string, lines int) string {
	all := strings.Split(strings.TrimSpace(text), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

var _ Downloader = (*CLI)(nil)
