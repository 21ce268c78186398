package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"REVOICE_API_BASE", "REVOICE_API_TIMEOUT_SECONDS",
		"REVOICE_FFMPEG_COMMAND", "REVOICE_FFPROBE_COMMAND", "REVOICE_FFPLAY_COMMAND",
		"REVOICE_AUDIO_INPUT_FORMAT", "REVOICE_AUDIO_INPUT_DEVICE",
		"REVOICE_SAMPLE_RATE", "REVOICE_CHANNELS",
		"REVOICE_MAX_DURATION_SECONDS", "REVOICE_SOURCE_LANGUAGE",
		"REVOICE_CACHE_TTL_SECONDS", "REVOICE_WAVEFORM_INTERVAL_MS",
		"REVOICE_WAVEFORM_BARS", "REVOICE_LOCALE", "REVOICE_DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected API base: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 120*time.Second {
		t.Fatalf("unexpected API timeout: %s", cfg.API.Timeout)
	}
	if cfg.Audio.FFmpegCommand != "ffmpeg" || cfg.Audio.FFprobeCommand != "ffprobe" || cfg.Audio.FFplayCommand != "ffplay" {
		t.Fatalf("unexpected tool commands: %+v", cfg.Audio)
	}
	if cfg.Pipeline.MaxDuration != time.Minute {
		t.Fatalf("unexpected duration ceiling: %s", cfg.Pipeline.MaxDuration)
	}
	if cfg.Pipeline.SourceLanguage != "vi" {
		t.Fatalf("unexpected source language: %q", cfg.Pipeline.SourceLanguage)
	}
	if cfg.Waveform.Interval != 60*time.Millisecond || cfg.Waveform.Bars != 32 {
		t.Fatalf("unexpected waveform config: %+v", cfg.Waveform)
	}
	if cfg.Locale != "en" || cfg.Debug {
		t.Fatalf("unexpected locale/debug: %q %v", cfg.Locale, cfg.Debug)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	t.Setenv("REVOICE_API_BASE", "https://api.example.com/v1/")
	t.Setenv("REVOICE_API_TIMEOUT_SECONDS", "30")
	t.Setenv("REVOICE_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("REVOICE_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("REVOICE_AUDIO_INPUT_DEVICE", "mic0")
	t.Setenv("REVOICE_SAMPLE_RATE", "22050")
	t.Setenv("REVOICE_CHANNELS", "2")
	t.Setenv("REVOICE_MAX_DURATION_SECONDS", "90")
	t.Setenv("REVOICE_SOURCE_LANGUAGE", "ja")
	t.Setenv("REVOICE_WAVEFORM_INTERVAL_MS", "40")
	t.Setenv("REVOICE_WAVEFORM_BARS", "48")
	t.Setenv("REVOICE_LOCALE", "vi")
	t.Setenv("REVOICE_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.API.Timeout)
	}
	if cfg.Audio.FFmpegCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "mic0" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.Channels != 2 {
		t.Fatalf("unexpected sample/channels: %+v", cfg.Audio)
	}
	if cfg.Pipeline.MaxDuration != 90*time.Second || cfg.Pipeline.SourceLanguage != "ja" {
		t.Fatalf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if cfg.Waveform.Interval != 40*time.Millisecond || cfg.Waveform.Bars != 48 {
		t.Fatalf("unexpected waveform config: %+v", cfg.Waveform)
	}
	if cfg.Locale != "vi" || !cfg.Debug {
		t.Fatalf("unexpected locale/debug: %q %v", cfg.Locale, cfg.Debug)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REVOICE_SAMPLE_RATE", "bad")
	t.Setenv("REVOICE_CHANNELS", "-1")
	t.Setenv("REVOICE_MAX_DURATION_SECONDS", "0")
	t.Setenv("REVOICE_WAVEFORM_INTERVAL_MS", "1")
	t.Setenv("REVOICE_WAVEFORM_BARS", "2")
	t.Setenv("REVOICE_DEBUG", "not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Pipeline.MaxDuration != time.Minute {
		t.Fatalf("expected default ceiling, got %s", cfg.Pipeline.MaxDuration)
	}
	if cfg.Waveform.Interval != 60*time.Millisecond {
		t.Fatalf("interval must be clamped, got %s", cfg.Waveform.Interval)
	}
	if cfg.Waveform.Bars != 32 {
		t.Fatalf("bar count must be clamped, got %d", cfg.Waveform.Bars)
	}
	if cfg.Debug {
		t.Fatalf("expected debug to stay off")
	}
}
