package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"revoice/internal/bootstrap"
	"revoice/internal/domain"
	"revoice/internal/usecase"
)

const (
	eventTranscript = "revoice:transcript"
	eventConversion = "revoice:conversion"
	eventScreen     = "revoice:screen"
	eventWaveform   = "revoice:waveform"
	eventError      = "revoice:error"
	eventNotice     = "revoice:notice"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.Services
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsClipboard{})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.ScreenChanged(domain.ScreenCapture)
}

func (a *App) shutdown(_ context.Context) {
	if a.services.Router != nil {
		a.services.Router.Shutdown()
	}
	if a.services.Store != nil {
		a.services.Store.Close()
	}
	if a.services.Logger != nil {
		_ = a.services.Logger.Sync()
	}
}

// StartRecording begins microphone capture for the capture screen.
func (a *App) StartRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Capture.StartRecording(a.ctx)
}

// StopRecording finalizes the capture and starts the upload pipeline.
func (a *App) StopRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.services.Capture.StopRecording(a.ctx)
	if errors.Is(err, usecase.ErrNoActiveRecording) {
		return nil
	}
	return err
}

// SelectAudioFile opens a native picker and feeds the chosen file into the
// upload pipeline.
func (a *App) SelectAudioFile() error {
	if err := a.requireReady(); err != nil {
		return err
	}

	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select an audio clip",
		Filters: []runtime.FileFilter{
			{DisplayName: "Audio files", Pattern: "*.wav;*.mp3;*.m4a;*.ogg;*.webm;*.flac"},
		},
	})
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	return a.services.Capture.AcquireFile(a.ctx, path)
}

// PlayPreview toggles playback of the locally held clip on the capture screen.
func (a *App) PlayPreview() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Capture.PlayPreview(a.ctx)
}

// EditTranscript records a local transcript edit without any network call.
func (a *App) EditTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Capture.EditTranscript(text)
	return nil
}

// SaveTranscript pushes the edited transcript for validation.
func (a *App) SaveTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Capture.SaveTranscript(a.ctx, text)
}

// RetryTranscript re-issues the transcript fetch after a failure.
func (a *App) RetryTranscript() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Capture.RetryTranscript(a.ctx)
}

// ReUpload discards everything on the capture screen.
func (a *App) ReUpload() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Capture.ReUpload()
	return nil
}

// Proceed confirms the transcript, requests translation and switches to the
// delivery screen.
func (a *App) Proceed(targetLanguage string) (domain.HandoffRecord, error) {
	if err := a.requireReady(); err != nil {
		return domain.HandoffRecord{}, err
	}
	return a.services.Router.Proceed(a.ctx, targetLanguage)
}

// Back returns to the capture screen.
func (a *App) Back() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Router.Back()
	return nil
}

// PlayOriginal toggles the original track on the delivery screen.
func (a *App) PlayOriginal() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Conversion.PlayOriginal(a.ctx)
}

// PlayConverted toggles the converted track on the delivery screen.
func (a *App) PlayConverted() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Conversion.PlayConverted(a.ctx)
}

// StopPlayback stops whichever delivery track is playing.
func (a *App) StopPlayback() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Conversion.StopPlayback()
	return nil
}

// RetryConversion re-issues the voice conversion after an error.
func (a *App) RetryConversion() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Conversion.Retry(a.ctx)
}

// DownloadConverted asks for a destination and saves the converted audio in
// the requested format, falling back to the original bytes when re-encoding
// is unavailable.
func (a *App) DownloadConverted(format string) (domain.DownloadResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.DownloadResult{}, err
	}

	target, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save converted audio",
		DefaultFilename: "converted." + format,
	})
	if err != nil {
		return domain.DownloadResult{}, err
	}
	if target == "" {
		return domain.DownloadResult{}, nil
	}

	result, err := a.services.Conversion.Download(a.ctx, domain.DownloadFormat(format), target)
	if err != nil {
		return domain.DownloadResult{}, err
	}
	if !result.Transcoded {
		a.notice("download_fallback", map[string]interface{}{"Format": string(result.Format)})
	}
	return result, nil
}

// GetCaptureState returns the capture screen snapshot.
func (a *App) GetCaptureState() domain.CaptureState {
	if a.services.Capture == nil {
		return domain.CaptureState{Transcript: domain.TranscriptView{Status: domain.TranscriptStatusIdle}}
	}
	return a.services.Capture.State()
}

// GetDeliveryState returns the delivery screen snapshot.
func (a *App) GetDeliveryState() domain.DeliveryState {
	if a.services.Conversion == nil {
		return domain.DeliveryState{Formats: domain.DownloadFormats}
	}
	return a.services.Conversion.State()
}

// GetScreen reports the active screen.
func (a *App) GetScreen() domain.Screen {
	if a.services.Router == nil {
		return domain.ScreenCapture
	}
	return a.services.Router.Screen()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"apiBase":        cfg.API.BaseURL,
		"sourceLanguage": cfg.Pipeline.SourceLanguage,
		"maxDuration":    domain.FormatClock(cfg.Pipeline.MaxDuration),
		"locale":         cfg.Locale,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Router == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// TranscriptChanged emits capture screen state to the frontend.
func (a *App) TranscriptChanged(view domain.TranscriptView) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, view)
}

// ConversionChanged emits delivery screen state to the frontend, localizing
// the preview warning when one is attached.
func (a *App) ConversionChanged(view domain.ConversionView) {
	if a.ctx == nil {
		return
	}
	if view.Warning != "" && a.services.Messages != nil {
		view.Warning = a.services.Messages.T(view.Warning, nil)
	}
	runtime.EventsEmit(a.ctx, eventConversion, view)
}

// ScreenChanged emits screen transitions to the frontend.
func (a *App) ScreenChanged(screen domain.Screen) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventScreen, map[string]string{"screen": string(screen)})
}

// WaveformFrame emits one waveform animation tick.
func (a *App) WaveformFrame(frame domain.WaveformFrame) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventWaveform, frame)
}

// SessionError emits a localized failure to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": a.errorMessage(code, detail),
		"detail":  detail,
	})
}

func (a *App) notice(key string, data map[string]interface{}) {
	if a.ctx == nil {
		return
	}
	message := key
	if a.services.Messages != nil {
		message = a.services.Messages.T(key, data)
	}
	runtime.EventsEmit(a.ctx, eventNotice, map[string]string{"message": message})
}

// errorMessage renders the user-facing text for a failure. Each category
// maps to its own message; the language mismatch carries the detected
// language and the required source language by name.
func (a *App) errorMessage(code domain.ErrorCode, detail string) string {
	messages := a.services.Messages
	if messages == nil {
		if detail != "" {
			return detail
		}
		return string(code)
	}

	switch code {
	case domain.ErrorCodeDurationExceeded:
		return messages.T(string(code), map[string]interface{}{
			"Duration": detail,
			"Limit":    domain.FormatClock(a.services.Config.Pipeline.MaxDuration),
		})
	case domain.ErrorCodeLanguageMismatch:
		required := messages.LanguageName(a.services.Config.Pipeline.SourceLanguage)
		if detail == "" {
			return messages.T("language_mismatch_unknown", map[string]interface{}{"Required": required})
		}
		return messages.T(string(code), map[string]interface{}{
			"Required": required,
			"Detected": messages.LanguageName(detail),
		})
	default:
		return messages.T(string(code), nil)
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
