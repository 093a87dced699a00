// Package config loads server configuration from the process environment.
// main loads a .env file first (via godotenv), so every knob can live either
// in the environment or in .env, matching how the service is deployed.
package config

import (
	"fmt"
	"strconv"
	"time"
)

// Provider names accepted in TRANSCRIBE_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Defaults applied when a variable is unset.
const (
	DefaultPort           = 3000
	DefaultTempDir        = "./temp"
	DefaultMaxSizeMB      = 20
	DefaultSegmentSeconds = 1800
	DefaultGeminiModel    = "gemini-2.5-pro"
	DefaultYtdlpPath      = "yt-dlp"
	DefaultFFmpegPath     = "ffmpeg"
)

// Config holds the runtime configuration for the transcription server.
type Config struct {
	Port    int
	TempDir string

	// MaxSizeBytes routes artifacts above this size through the segmenter.
	MaxSizeBytes int64
	// SegmentDuration is the fixed duration of each segment.
	SegmentDuration time.Duration

	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string

	YtdlpPath  string
	FFmpegPath string

	// URLTimeout bounds one URL's pipeline run. Zero means unbounded,
	// preserving the contracted behavior.
	URLTimeout time.Duration

	// StaticDir, when set, is served at / for the browser UI.
	StaticDir string
}

// Load reads configuration from getenv (usually os.Getenv), applying
// defaults and validating numeric values.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:            DefaultPort,
		TempDir:         DefaultTempDir,
		MaxSizeBytes:    DefaultMaxSizeMB * 1024 * 1024,
		SegmentDuration: DefaultSegmentSeconds * time.Second,
		Provider:        ProviderGemini,
		GeminiAPIKey:    getenv("GEMINI_API_KEY"),
		GeminiModel:     DefaultGeminiModel,
		OpenAIAPIKey:    getenv("OPENAI_API_KEY"),
		YtdlpPath:       DefaultYtdlpPath,
		FFmpegPath:      DefaultFFmpegPath,
		StaticDir:       getenv("STATIC_DIR"),
	}

	if v := getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = n
	}
	if v := getenv("TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}
	if v := getenv("MAX_SIZE"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil || mb <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_SIZE %q (megabytes)", v)
		}
		cfg.MaxSizeBytes = int64(mb * 1024 * 1024)
	}
	if v := getenv("SEGMENT_SIZE"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return Config{}, fmt.Errorf("invalid SEGMENT_SIZE %q (seconds)", v)
		}
		cfg.SegmentDuration = time.Duration(sec) * time.Second
	}
	if v := getenv("TRANSCRIBE_PROVIDER"); v != "" {
		if v != ProviderGemini && v != ProviderOpenAI {
			return Config{}, fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q (use %q or %q)",
				v, ProviderGemini, ProviderOpenAI)
		}
		cfg.Provider = v
	}
	if v := getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := getenv("YTDLP_PATH"); v != "" {
		cfg.YtdlpPath = v
	}
	if v := getenv("FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := getenv("URL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid URL_TIMEOUT %q (e.g. 10m)", v)
		}
		cfg.URLTimeout = d
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	return cfg, nil
}
