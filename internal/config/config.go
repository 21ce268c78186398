package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the client.
type Config struct {
	API      APIConfig
	Audio    AudioConfig
	Pipeline PipelineConfig
	Waveform WaveformConfig
	Locale   string
	Debug    bool
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AudioConfig struct {
	FFmpegCommand  string
	FFprobeCommand string
	FFplayCommand  string
	InputFormat    string
	InputDevice    string
	SampleRate     int
	Channels       int
}

type PipelineConfig struct {
	MaxDuration    time.Duration
	SourceLanguage string
	CacheTTL       time.Duration
}

type WaveformConfig struct {
	Interval time.Duration
	Bars     int
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL: envOrDefault("REVOICE_API_BASE", "http://localhost:8000"),
			Timeout: time.Duration(envOrDefaultInt("REVOICE_API_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Audio: AudioConfig{
			FFmpegCommand:  envOrDefault("REVOICE_FFMPEG_COMMAND", "ffmpeg"),
			FFprobeCommand: envOrDefault("REVOICE_FFPROBE_COMMAND", "ffprobe"),
			FFplayCommand:  envOrDefault("REVOICE_FFPLAY_COMMAND", "ffplay"),
			InputFormat:    envOrDefault("REVOICE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:    envOrDefault("REVOICE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:     envOrDefaultInt("REVOICE_SAMPLE_RATE", 16000),
			Channels:       envOrDefaultInt("REVOICE_CHANNELS", 1),
		},
		Pipeline: PipelineConfig{
			MaxDuration:    time.Duration(envOrDefaultInt("REVOICE_MAX_DURATION_SECONDS", 60)) * time.Second,
			SourceLanguage: envOrDefault("REVOICE_SOURCE_LANGUAGE", "vi"),
			CacheTTL:       time.Duration(envOrDefaultInt("REVOICE_CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		Waveform: WaveformConfig{
			Interval: time.Duration(envOrDefaultInt("REVOICE_WAVEFORM_INTERVAL_MS", 60)) * time.Millisecond,
			Bars:     envOrDefaultInt("REVOICE_WAVEFORM_BARS", 32),
		},
		Locale: envOrDefault("REVOICE_LOCALE", "en"),
		Debug:  envOrDefaultBool("REVOICE_DEBUG", false),
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 120 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Pipeline.MaxDuration <= 0 {
		cfg.Pipeline.MaxDuration = 60 * time.Second
	}
	if cfg.Pipeline.CacheTTL <= 0 {
		cfg.Pipeline.CacheTTL = time.Hour
	}
	if cfg.Waveform.Interval < 16*time.Millisecond {
		cfg.Waveform.Interval = 60 * time.Millisecond
	}
	if cfg.Waveform.Bars < 8 {
		cfg.Waveform.Bars = 32
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
