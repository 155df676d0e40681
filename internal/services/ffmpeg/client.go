package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"nostrcast/internal/fileutil"
)

var commandContext = exec.CommandContext

// EncoderSpec identifies one encoder candidate.
type EncoderSpec struct {
	Name        string
	CodecFamily string // "h264" or "h265"
	Hardware    bool
}

// Transcoder defines the probe/encode behaviour the planner needs.
type Transcoder interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	Encode(ctx context.Context, input, outputDir string, spec EncoderSpec, targetBitRate int64, filters []string) (string, error)
	TestEncode(ctx context.Context, encoder string) error
	ListEncoders(ctx context.Context) (map[string]bool, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithFFmpegBinary overrides the default ffmpeg binary name.
func WithFFmpegBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffmpegBinary = binary
		}
	}
}

// WithFFprobeBinary overrides the default ffprobe binary name.
func WithFFprobeBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffprobeBinary = binary
		}
	}
}

// CLI wraps the ffmpeg and ffprobe command-line tools.
type CLI struct {
	ffmpegBinary  string
	ffprobeBinary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{ffmpegBinary: "ffmpeg", ffprobeBinary: "ffprobe"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode re-encodes input with the given encoder at targetBitRate, applying
// filters (resolution/SAR hints) when provided. The output file is written
// into outputDir so it shares the caller's staging lifecycle; the input's
// own directory is never written to. Success requires a zero exit and a
// non-empty output file.
func (c *CLI) Encode(ctx context.Context, input, outputDir string, spec EncoderSpec, targetBitRate int64, filters []string) (string, error) {
	if input == "" {
		return "", errors.New("input path required")
	}
	if outputDir == "" {
		return "", errors.New("output directory required")
	}
	if spec.Name == "" {
		return "", errors.New("encoder name required")
	}
	if targetBitRate <= 0 {
		return "", errors.New("target bitrate required")
	}

	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	output := filepath.Join(outputDir, stem+".converted.mp4")

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-c:v", spec.Name,
		"-b:v", strconv.FormatInt(targetBitRate, 10),
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}
	args = append(args, "-c:a", "copy", "-movflags", "+faststart", output)

	cmd := commandContext(ctx, c.ffmpegBinary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg encode with %s: %w: %s", spec.Name, err, tail(stderr.String(), 4))
	}
	if !fileutil.NonEmpty(output) {
		return "", fmt.Errorf("ffmpeg encode with %s produced no output", spec.Name)
	}
	return output, nil
}

// TestEncode runs a synthetic one-second encode to prove the encoder works
// on this machine. Device files being present is not enough for hardware
// encoders; only an actual encode settles it.
func (c *CLI) TestEncode(ctx context.Context, encoder string) error {
	if encoder == "" {
		return errors.New("encoder name required")
	}
	cmd := commandContext(ctx, c.ffmpegBinary,
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=30",
		"-c:v", encoder,
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("test encode with %s: %w: %s", encoder, err, tail(stderr.String(), 2))
	}
	return nil
}

// ListEncoders parses `ffmpeg -encoders` into the set of available video
// encoder names.
func (c *CLI) ListEncoders(ctx context.Context) (map[string]bool, error) {
	cmd := commandContext(ctx, c.ffmpegBinary, "-hide_banner", "-encoders")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return ParseEncoderList(stdout.String()), nil
}

// ParseEncoderList extracts video encoder names from `ffmpeg -encoders`
// output. Exported for testing without a real ffmpeg binary.
func ParseEncoderList(output string) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		// Capability column like "V....D" marks video encoders.
		if !strings.HasPrefix(fields[0], "V") || len(fields[0]) != 6 {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}

func tail(text string, lines int) string {
	all := strings.Split(strings.TrimSpace(text), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

var _ Transcoder = (*CLI)(nil)
