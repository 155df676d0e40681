package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.FiledropURL == "" && len(c.Upload.BlossomServers) == 0 {
		return errors.New("upload: at least one of upload.filedrop_url or upload.blossom_servers must be set")
	}
	for _, server := range c.Upload.BlossomServers {
		if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
			return fmt.Errorf("upload.blossom_servers: %q is not an http(s) URL", server)
		}
	}
	if c.Upload.FiledropURL != "" && !strings.HasPrefix(c.Upload.FiledropURL, "http://") && !strings.HasPrefix(c.Upload.FiledropURL, "https://") {
		return fmt.Errorf("upload.filedrop_url: %q is not an http(s) URL", c.Upload.FiledropURL)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.PowDifficulty < 0 {
		return errors.New("publish.pow_difficulty must not be negative")
	}
	for _, relay := range c.Publish.Relays {
		if !strings.HasPrefix(relay, "wss://") && !strings.HasPrefix(relay, "ws://") {
			return fmt.Errorf("publish.relays: %q is not a websocket URL", relay)
		}
	}
	if c.Publish.SendToRelays && len(c.Publish.Relays) == 0 {
		return errors.New("publish.relays must be set when publish.send_to_relays is enabled")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	for _, encoder := range c.Transcode.Encoders {
		if strings.ContainsAny(encoder, " \t") {
			return fmt.Errorf("transcode.encoders: %q contains whitespace", encoder)
		}
	}
	return nil
}

func (c *Config) validateDownload() error {
	source := c.Download.CookieSource
	if source == "" || source == "firefox" {
		return nil
	}
	if strings.HasPrefix(source, "file:") {
		if strings.TrimSpace(strings.TrimPrefix(source, "file:")) == "" {
			return errors.New("download.cookie_source: file: prefix requires a path")
		}
		return nil
	}
	return fmt.Errorf("download.cookie_source: %q must be empty, \"firefox\", or \"file:<path>\"", source)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
