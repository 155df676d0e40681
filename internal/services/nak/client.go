package nak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Request describes one event to sign and (optionally) broadcast.
type Request struct {
	Content       string
	Tags          [][]string
	SecretKey     string
	PowDifficulty int
	// Relays to broadcast to; empty means sign-only.
	Relays []string
}

// BlobDescriptor is the upload receipt a blossom server returns.
type BlobDescriptor struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
}

// Signer defines the signing/broadcast behaviour the publisher needs.
type Signer interface {
	Publish(ctx context.Context, req Request) (string, error)
	EncodeNevent(ctx context.Context, eventID string) (string, error)
	BlossomUpload(ctx context.Context, file, server, secretKey string) (BlobDescriptor, error)
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

// CLI wraps the nak command-line nostr tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "nak"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Publish signs the event and broadcasts it to the given relays, returning
// the event id. The tool's exit code is authoritative: non-zero means the
// publish was rejected no matter what was printed.
func (c *CLI) Publish(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Content) == "" {
		return "", errors.New("event content required")
	}
	if strings.TrimSpace(req.SecretKey) == "" {
		return "", errors.New("secret key required")
	}

	args := []string{"event", "--sec", req.SecretKey, "-k", "1", "-c", req.Content}
	for _, tag := range req.Tags {
		if len(tag) < 2 {
			continue
		}
		args = append(args, "-t", tag[0]+"="+tag[1])
	}
	if req.PowDifficulty > 0 {
		args = append(args, "--pow", strconv.Itoa(req.PowDifficulty))
	}
	args = append(args, req.Relays...)

	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("nak event: %w: %s", err, tail(stderr.String(), 4))
	}

	eventID := ParseEventID(stdout.String())
	if eventID == "" {
		return "", errors.New("nak output contained no event id")
	}
	return eventID, nil
}

// EncodeNevent converts a hex event id to its nevent bech32 form.
func (c *CLI) EncodeNevent(ctx context.Context, eventID string) (string, error) {
	eventID = strings.TrimSpace(eventID)
	if len(eventID) != 64 {
		return "", fmt.Errorf("event id %q is not 64 hex characters", eventID)
	}
	cmd := commandContext(ctx, c.binary, "encode", "nevent", eventID)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("nak encode nevent: %w", err)
	}
	encoded := strings.TrimSpace(strings.SplitN(stdout.String(), "\n", 2)[0])
	if !strings.HasPrefix(encoded, "nevent1") {
		return "", fmt.Errorf("nak encode nevent returned unexpected value %q", encoded)
	}
	return encoded, nil
}

// BlossomUpload pushes a file to a blossom server and returns its blob
// descriptor.
func (c *CLI) BlossomUpload(ctx context.Context, file, server, secretKey string) (BlobDescriptor, error) {
	if file == "" {
		return BlobDescriptor{}, errors.New("file required")
	}
	if server == "" {
		return BlobDescriptor{}, errors.New("server required")
	}
	args := []string{"blossom", "upload", "--server", server}
	if secretKey != "" {
		args = append(args, "--sec", secretKey)
	}
	args = append(args, file)

	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return BlobDescriptor{}, fmt.Errorf("nak blossom upload to %s: %w: %s", server, err, tail(stderr.String(), 4))
	}

	descriptor, err := parseBlobDescriptor(stdout.String())
	if err != nil {
		return BlobDescriptor{}, fmt.Errorf("nak blossom upload to %s: %w", server, err)
	}
	return descriptor, nil
}

func parseBlobDescriptor(output string) (BlobDescriptor, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var descriptor BlobDescriptor
		if err := json.Unmarshal([]byte(line), &descriptor); err != nil {
			continue
		}
		if descriptor.URL != "" {
			return descriptor, nil
		}
	}
	return BlobDescriptor{}, errors.New("no blob descriptor in output")
}

var hexIDPattern = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)
var urlPattern = regexp.MustCompile(`https?://[^\s)]+`)

// ParseEventID extracts the signed event's id from nak output. The JSON
// event on stdout is the usual case; the fallback scan skips hex strings
// that appear inside URLs, which are file hashes rather than event ids.
func ParseEventID(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var event struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		if len(event.ID) == 64 {
			return strings.ToLower(event.ID)
		}
	}

	urlHex := make(map[string]struct{})
	for _, rawURL := range urlPattern.FindAllString(output, -1) {
		for _, match := range hexIDPattern.FindAllString(rawURL, -1) {
			urlHex[strings.ToLower(match)] = struct{}{}
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if urlPattern.MatchString(line) {
			continue
		}
		for _, match := range hexIDPattern.FindAllString(line, -1) {
			candidate := strings.ToLower(match)
			if _, inURL := urlHex[candidate]; !inURL {
				return candidate
			}
		}
	}
	return ""
}

func tail(text string, lines int) string {
	all := strings.Split(strings.TrimSpace(text), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

var _ Signer = (*CLI)(nil)
