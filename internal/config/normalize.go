package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeUpload()
	c.normalizeTranscode()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryFile) == "" {
		c.Paths.HistoryFile = defaultHistoryFile
	}
	if c.Paths.HistoryFile, err = expandPath(c.Paths.HistoryFile); err != nil {
		return fmt.Errorf("paths.history_file: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() error {
	c.Publish.NakBinary = strings.TrimSpace(c.Publish.NakBinary)
	if c.Publish.NakBinary == "" {
		c.Publish.NakBinary = "nak"
	}
	relays := make([]string, 0, len(c.Publish.Relays))
	for _, relay := range c.Publish.Relays {
		if trimmed := strings.TrimSpace(relay); trimmed != "" {
			relays = append(relays, trimmed)
		}
	}
	c.Publish.Relays = relays
	if strings.TrimSpace(c.Publish.SecretKeyFile) != "" {
		expanded, err := expandPath(c.Publish.SecretKeyFile)
		if err != nil {
			return fmt.Errorf("publish.secret_key_file: %w", err)
		}
		c.Publish.SecretKeyFile = expanded
	}
	return nil
}

func (c *Config) normalizeUpload() {
	c.Upload.FiledropURL = strings.TrimSpace(c.Upload.FiledropURL)
	servers := make([]string, 0, len(c.Upload.BlossomServers))
	for _, server := range c.Upload.BlossomServers {
		trimmed := strings.TrimRight(strings.TrimSpace(server), "/")
		if trimmed != "" {
			servers = append(servers, trimmed)
		}
	}
	c.Upload.BlossomServers = servers
	if c.Upload.RequestTimeout <= 0 {
		c.Upload.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = "ffmpeg"
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = "ffprobe"
	}
	encoders := make([]string, 0, len(c.Transcode.Encoders))
	for _, encoder := range c.Transcode.Encoders {
		if trimmed := strings.TrimSpace(encoder); trimmed != "" {
			encoders = append(encoders, trimmed)
		}
	}
	c.Transcode.Encoders = encoders
}

func (c *Config) normalizeDownload() {
	c.Download.CookieSource = strings.TrimSpace(c.Download.CookieSource)
	c.Download.YtdlpBinary = strings.TrimSpace(c.Download.YtdlpBinary)
	if c.Download.YtdlpBinary == "" {
		c.Download.YtdlpBinary = "yt-dlp"
	}
	c.Download.GalleryDLBinary = strings.TrimSpace(c.Download.GalleryDLBinary)
	if c.Download.GalleryDLBinary == "" {
		c.Download.GalleryDLBinary = "gallery-dl"
	}
	if len(c.Download.FormatPreference) == 0 {
		c.Download.FormatPreference = []string{"hevc", "avc", "best"}
	}
	if c.Download.MaxGallerySearch <= 0 {
		c.Download.MaxGallerySearch = defaultMaxGallerySearch
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
