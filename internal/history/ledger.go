package history

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"nostrcast/internal/services"
)

// Ledger is the append-only dedup store. Each line of the backing file is
// one opaque token: a SHA-256 hex digest, a normalized source URL, or a bare
// filename. Membership is an exact token match; the historic file format is
// preserved so ledgers written by earlier tooling keep working.
type Ledger struct {
	path    string
	enabled bool
}

// Open returns a ledger backed by path. The file is created lazily on the
// first commit. A disabled ledger reports no duplicates and never commits.
func Open(path string, enabled bool) *Ledger {
	return &Ledger{path: path, enabled: enabled}
}

// Enabled reports whether dedup checking is active.
func (l *Ledger) Enabled() bool {
	return l.enabled
}

// Exists reports whether token was recorded by a previous successful run.
// Always false when the ledger is disabled.
func (l *Ledger) Exists(token string) (bool, error) {
	if !l.enabled {
		return false, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == token {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read history: %w", err)
	}
	return false, nil
}

// Check wraps Exists with the pipeline's fatal duplicate semantics.
func (l *Ledger) Check(token string) error {
	hit, err := l.Exists(token)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "history", "check", token, err)
	}
	if hit {
		return services.Wrap(services.ErrDuplicateDetected, "history", "check", token+" already processed", nil)
	}
	return nil
}

// Commit appends tokens to the ledger. Called exactly once, after the whole
// run (acquire, upload, publish) has succeeded; a no-op when disabled since
// commits require the check to be active.
func (l *Ledger) Commit(tokens []string) error {
	if !l.enabled || len(tokens) == 0 {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history for append: %w", err)
	}
	defer file.Close()

	var builder strings.Builder
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		builder.WriteString(token)
		builder.WriteByte('\n')
	}
	if _, err := file.WriteString(builder.String()); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return file.Close()
}

// List returns every recorded token in file order. A missing file is an
// empty ledger.
func (l *Ledger) List() ([]string, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	var tokens []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if token := strings.TrimSpace(scanner.Text()); token != "" {
			tokens = append(tokens, token)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return tokens, nil
}

// URLToken normalizes a source URL into its ledger token: fragment dropped,
// trailing slash trimmed.
func URLToken(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	normalized := parsed.String()
	return strings.TrimRight(normalized, "/")
}

// FilenameToken reduces a local path to its bare filename token.
func FilenameToken(path string) string {
	return filepath.Base(strings.TrimSpace(path))
}

// SkipPrecheck reports whether a filename token is too generic to be useful:
// one-two-digit numeric names (gallery position files like 3.jpg) would
// collide with unrelated downloads, so the pre-acquisition check skips them.
func SkipPrecheck(filename string) bool {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if len(stem) == 0 || len(stem) > 2 {
		return false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
