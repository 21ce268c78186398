package bootstrap

import (
	"go.uber.org/zap"

	"revoice/internal/api"
	"revoice/internal/audio"
	"revoice/internal/config"
	"revoice/internal/i18n"
	"revoice/internal/logging"
	"revoice/internal/ports"
	"revoice/internal/store"
	"revoice/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Router     *usecase.ScreenRouter
	Capture    *usecase.CaptureController
	Conversion *usecase.ConversionController
	Store      *store.TempStore
	Messages   *i18n.Catalog
	Config     config.Config
	Logger     *zap.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return Services{}, err
	}

	messages, err := i18n.NewCatalog(cfg.Locale)
	if err != nil {
		return Services{}, err
	}

	tempStore, err := store.NewTempStore(cfg.Pipeline.CacheTTL)
	if err != nil {
		return Services{}, err
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger.Named("api"))

	player := audio.NewFFPlayPlayer(cfg.Audio.FFplayCommand, cfg.Audio.FFmpegCommand)

	waveform := usecase.WaveformConfig{
		Interval: cfg.Waveform.Interval,
		Bars:     cfg.Waveform.Bars,
	}

	capture := usecase.NewCaptureController(
		client,
		audio.NewFFMPEGRecorder(cfg.Audio.FFmpegCommand),
		audio.NewFFProbeProber(cfg.Audio.FFprobeCommand),
		player,
		clipboard,
		eventSink,
		logger.Named("capture"),
		usecase.CaptureConfig{
			Record: ports.RecordConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			MaxDuration:    cfg.Pipeline.MaxDuration,
			SourceLanguage: cfg.Pipeline.SourceLanguage,
			Waveform:       waveform,
		},
	)

	conversion := usecase.NewConversionController(
		client,
		player,
		tempStore,
		audio.NewFFMPEGTranscoder(cfg.Audio.FFmpegCommand),
		eventSink,
		logger.Named("conversion"),
		usecase.ConversionConfig{Waveform: waveform},
	)

	router := usecase.NewScreenRouter(capture, conversion, eventSink, logger.Named("router"))

	return Services{
		Router:     router,
		Capture:    capture,
		Conversion: conversion,
		Store:      tempStore,
		Messages:   messages,
		Config:     cfg,
		Logger:     logger,
	}, nil
}
