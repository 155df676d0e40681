package config

const (
	defaultStagingDir       = "~/.local/share/nostrcast/staging"
	defaultLogDir           = "~/.local/share/nostrcast/logs"
	defaultHistoryFile      = "~/.local/share/nostrcast/history.txt"
	defaultSecretKeyFile    = "~/.config/nostrcast/secret.key"
	defaultRequestTimeout   = 60
	defaultPowDifficulty    = 0
	defaultMaxGallerySearch = 40
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultNotifyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			LogDir:      defaultLogDir,
			HistoryFile: defaultHistoryFile,
		},
		Upload: Upload{
			RequestTimeout: defaultRequestTimeout,
		},
		Publish: Publish{
			PowDifficulty: defaultPowDifficulty,
			SecretKeyFile: defaultSecretKeyFile,
			SendToRelays:  true,
			NakBinary:     "nak",
		},
		Transcode: Transcode{
			Enabled:         true,
			H265Enabled:     true,
			HardwareEnabled: true,
			FFmpegBinary:    "ffmpeg",
			FFprobeBinary:   "ffprobe",
		},
		Download: Download{
			FormatPreference: []string{"hevc", "avc", "best"},
			MaxGallerySearch: defaultMaxGallerySearch,
			YtdlpBinary:      "yt-dlp",
			GalleryDLBinary:  "gallery-dl",
		},
		Dedup: Dedup{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
