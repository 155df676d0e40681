package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and state file configuration.
type Paths struct {
	StagingDir  string `toml:"staging_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryFile string `toml:"history_file"`
}

// Upload contains the ordered upload sink configuration.
type Upload struct {
	FiledropURL    string   `toml:"filedrop_url"`
	BlossomServers []string `toml:"blossom_servers"`
	RequestTimeout int      `toml:"request_timeout"`
}

// Publish contains signing and relay broadcast configuration.
type Publish struct {
	Relays        []string `toml:"relays"`
	PowDifficulty int      `toml:"pow_difficulty"`
	SecretKeyFile string   `toml:"secret_key_file"`
	SendToRelays  bool     `toml:"send_to_relays"`
	NakBinary     string   `toml:"nak_binary"`
}

// Transcode contains encoder selection configuration.
type Transcode struct {
	Enabled         bool     `toml:"enabled"`
	H265Enabled     bool     `toml:"h265_enabled"`
	HardwareEnabled bool     `toml:"hardware_enabled"`
	Encoders        []string `toml:"encoders"`
	FFmpegBinary    string   `toml:"ffmpeg_binary"`
	FFprobeBinary   string   `toml:"ffprobe_binary"`
}

// Download contains downloader configuration shared by yt-dlp and gallery-dl.
type Download struct {
	CookieSource     string   `toml:"cookie_source"`
	FormatPreference []string `toml:"format_preference"`
	MaxGallerySearch int      `toml:"max_gallery_search"`
	YtdlpBinary      string   `toml:"ytdlp_binary"`
	GalleryDLBinary  string   `toml:"gallerydl_binary"`
}

// Dedup contains history ledger configuration.
type Dedup struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for nostrcast.
//
// Configuration sections by subsystem:
//   - Paths: staging/log directories and the dedup history file
//   - Upload: filedrop endpoint and the blossom server ladder
//   - Publish: relays, proof-of-work difficulty, secret key source
//   - Transcode: encoder toggles, override list, ffmpeg/ffprobe binaries
//   - Download: cookie source, format preference, downloader binaries
//   - Dedup: history ledger toggle
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Upload        Upload        `toml:"upload"`
	Publish       Publish       `toml:"publish"`
	Transcode     Transcode     `toml:"transcode"`
	Download      Download      `toml:"download"`
	Dedup         Dedup         `toml:"dedup"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/nostrcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether the file existed; defaults apply when it does not.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nostrcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before any stage
// touches the filesystem.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if historyDir := filepath.Dir(c.Paths.HistoryFile); historyDir != "." && historyDir != "" {
		if err := os.MkdirAll(historyDir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", historyDir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
