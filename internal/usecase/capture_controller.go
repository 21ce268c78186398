package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"revoice/internal/api"
	"revoice/internal/domain"
	"revoice/internal/ports"
)

var (
	ErrNoActiveRecording  = errors.New("no active recording session")
	ErrNoAudio            = errors.New("no audio has been uploaded")
	ErrTranscriptNotReady = errors.New("transcript is not confirmed")
	ErrRetryUnavailable   = errors.New("retry is only available after a failure")
	ErrDurationExceeded   = errors.New("audio exceeds the maximum duration")
)

// CaptureConfig controls the capture screen pipeline.
type CaptureConfig struct {
	Record         ports.RecordConfig
	MaxDuration    time.Duration
	SourceLanguage string
	Waveform       WaveformConfig
}

// CaptureController drives the path from raw audio to a confirmed
// source-language transcript, and initiates translation on proceed.
type CaptureController struct {
	client    ports.BackendClient
	recorder  ports.Recorder
	prober    ports.DurationProber
	player    ports.Player
	events    ports.EventSink
	finalizer handoffFinalizer
	log       *zap.Logger
	cfg       CaptureConfig

	mu      sync.Mutex
	gen     uint64
	asset   *domain.AudioAsset
	upload  *domain.UploadedAudio
	view    domain.TranscriptView
	rec     *recordingRun
	preview *playbackRun
}

type recordingRun struct {
	session ports.RecordingSession
	wave    *waveformTask
	timer   *time.Timer
}

func NewCaptureController(
	client ports.BackendClient,
	recorder ports.Recorder,
	prober ports.DurationProber,
	player ports.Player,
	clipboard ports.Clipboard,
	events ports.EventSink,
	log *zap.Logger,
	cfg CaptureConfig,
) *CaptureController {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 60 * time.Second
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = "vi"
	}
	cfg.Record.MaxDuration = cfg.MaxDuration
	if log == nil {
		log = zap.NewNop()
	}
	return &CaptureController{
		client:    client,
		recorder:  recorder,
		prober:    prober,
		player:    player,
		events:    events,
		finalizer: newHandoffFinalizer(clipboard, events, log),
		log:       log,
		cfg:       cfg,
		view:      domain.TranscriptView{Status: domain.TranscriptStatusIdle},
	}
}

// StartRecording begins microphone capture, discarding any previous audio,
// transcript and in-flight work. Capture auto-terminates at the ceiling.
func (c *CaptureController) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	gen := c.resetLocked()
	c.mu.Unlock()
	c.publish()

	session, err := c.recorder.Start(ctx, c.cfg.Record)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeCapture, err.Error())
		return err
	}

	run := &recordingRun{
		session: session,
		// No decodable live source exists while recording; the waveform
		// task substitutes its moving fallback pattern.
		wave: startWaveform(domain.WaveTrackRecording, nil, c.cfg.Waveform, c.events),
	}
	run.timer = time.AfterFunc(c.cfg.MaxDuration, func() {
		if err := c.finishRecording(context.Background(), run, gen); err != nil && !errors.Is(err, ErrNoActiveRecording) {
			c.log.Warn("auto-stop at ceiling failed", zap.Error(err))
		}
	})

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		run.timer.Stop()
		run.wave.Stop()
		_ = session.Abort()
		return nil
	}
	c.rec = run
	c.view = domain.TranscriptView{Status: domain.TranscriptStatusRecording}
	c.mu.Unlock()

	c.publish()
	c.log.Info("recording started", zap.Duration("ceiling", c.cfg.MaxDuration))
	return nil
}

// StopRecording finalizes the capture, validates its duration and feeds it
// into the upload pipeline.
func (c *CaptureController) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	run := c.rec
	gen := c.gen
	c.mu.Unlock()
	if run == nil {
		return ErrNoActiveRecording
	}
	return c.finishRecording(ctx, run, gen)
}

func (c *CaptureController) finishRecording(ctx context.Context, run *recordingRun, gen uint64) error {
	c.mu.Lock()
	if c.rec != run || gen != c.gen {
		c.mu.Unlock()
		return ErrNoActiveRecording
	}
	c.rec = nil
	c.mu.Unlock()

	run.timer.Stop()
	run.wave.Stop()

	if err := run.session.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeCapture, err.Error())
		c.commitView(gen, domain.TranscriptView{Status: domain.TranscriptStatusError})
		_ = os.Remove(run.session.Path())
		return err
	}

	return c.acceptAudio(ctx, gen, run.session.Path(), domain.AudioSourceRecorded)
}

// AcquireFile validates a user-selected audio file and feeds it into the
// upload pipeline. Any previous audio and transcript state is discarded.
func (c *CaptureController) AcquireFile(ctx context.Context, path string) error {
	c.mu.Lock()
	gen := c.resetLocked()
	c.mu.Unlock()
	c.publish()

	return c.acceptAudio(ctx, gen, path, domain.AudioSourceUploaded)
}

// acceptAudio runs local validation (the duration ceiling, emptiness) before
// any network call, then uploads and auto-fetches the transcript.
func (c *CaptureController) acceptAudio(ctx context.Context, gen uint64, path string, source domain.AudioSource) error {
	discard := func() {
		if source == domain.AudioSourceRecorded {
			_ = os.Remove(path)
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		discard()
		c.events.SessionError(domain.ErrorCodeEmptyAudio, path)
		return errors.New("audio file is empty or unreadable")
	}

	duration, err := c.prober.Probe(ctx, path)
	if err != nil {
		discard()
		c.events.SessionError(domain.ErrorCodeUnsupportedMedia, err.Error())
		return err
	}

	if duration > c.cfg.MaxDuration {
		discard()
		c.log.Info("audio rejected for duration",
			zap.Duration("duration", duration),
			zap.Duration("ceiling", c.cfg.MaxDuration),
		)
		c.events.SessionError(domain.ErrorCodeDurationExceeded, domain.FormatClock(duration))
		return ErrDurationExceeded
	}

	asset := domain.AudioAsset{Path: path, DurationSeconds: duration.Seconds(), Source: source}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		discard()
		return nil
	}
	c.asset = &asset
	c.view = domain.TranscriptView{Status: domain.TranscriptStatusUploading}
	c.mu.Unlock()
	c.publish()

	uploaded, err := c.client.UploadAudio(ctx, path)
	if err != nil {
		c.commitView(gen, domain.TranscriptView{Status: domain.TranscriptStatusError})
		c.events.SessionError(classifyUploadError(err), err.Error())
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.upload = &uploaded
	c.view = domain.TranscriptView{Status: domain.TranscriptStatusTranscribing}
	c.mu.Unlock()
	c.publish()

	// The transcript fetch is sequenced strictly after the upload response.
	return c.fetchTranscript(ctx, gen, uploaded.ID)
}

func (c *CaptureController) fetchTranscript(ctx context.Context, gen uint64, audioID string) error {
	payload, err := c.client.FetchTranscript(ctx, audioID)
	if err != nil {
		c.handleTranscriptError(gen, err, "")
		return err
	}

	c.commitView(gen, domain.TranscriptView{
		Status:           domain.TranscriptStatusCompleted,
		Text:             payload.Text,
		DetectedLanguage: payload.DetectedLanguage,
	})
	c.log.Info("transcript ready", zap.String("audioId", audioID))
	return nil
}

// handleTranscriptError routes a transcript failure into one of the three
// distinct branches: language mismatch (its own status, never folded into
// the generic error), not-found (which invalidates the audio identity), and
// everything else. text is the user's submitted text, kept on screen so a
// mismatch can be fixed by editing.
func (c *CaptureController) handleTranscriptError(gen uint64, err error, text string) {
	switch {
	case api.IsLanguageMismatch(err):
		detected := api.DetectedLanguage(err)
		c.commitView(gen, domain.TranscriptView{
			Status:           domain.TranscriptStatusLanguageError,
			Text:             text,
			DetectedLanguage: detected,
		})
		c.events.SessionError(domain.ErrorCodeLanguageMismatch, detected)
	case api.IsNotFound(err):
		c.mu.Lock()
		if gen == c.gen {
			c.upload = nil
			c.view = domain.TranscriptView{Status: domain.TranscriptStatusError}
		}
		c.mu.Unlock()
		c.publish()
		c.events.SessionError(domain.ErrorCodeAudioNotFound, err.Error())
	default:
		c.commitView(gen, domain.TranscriptView{Status: domain.TranscriptStatusError, Text: text})
		c.events.SessionError(domain.ErrorCodeTranscriptFailed, err.Error())
	}
}

// EditTranscript records a local edit. An active language-error display is
// cleared optimistically, and the transcript drops to draft until the next
// save re-validates it. No network call is made.
func (c *CaptureController) EditTranscript(text string) {
	c.mu.Lock()
	switch c.view.Status {
	case domain.TranscriptStatusCompleted, domain.TranscriptStatusDraft,
		domain.TranscriptStatusLanguageError, domain.TranscriptStatusError:
		c.view = domain.TranscriptView{Status: domain.TranscriptStatusDraft, Text: text}
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.publish()
}

// SaveTranscript pushes the edited text for server-side validation and, on
// success, re-fetches the transcript to reflect any normalization.
func (c *CaptureController) SaveTranscript(ctx context.Context, text string) error {
	c.mu.Lock()
	upload := c.upload
	gen := c.gen
	c.mu.Unlock()
	if upload == nil {
		c.events.SessionError(domain.ErrorCodeAudioMissing, "")
		return ErrNoAudio
	}

	c.commitView(gen, domain.TranscriptView{Status: domain.TranscriptStatusTranscribing, Text: text})

	if err := c.client.UpdateTranscript(ctx, upload.ID, text); err != nil {
		c.handleTranscriptError(gen, err, text)
		return err
	}

	// Save completion strictly precedes the re-fetch.
	return c.fetchTranscript(ctx, gen, upload.ID)
}

// RetryTranscript clears the transcript and re-issues the fetch for the
// existing audio identifier. Only valid after a failure.
func (c *CaptureController) RetryTranscript(ctx context.Context) error {
	c.mu.Lock()
	status := c.view.Status
	upload := c.upload
	gen := c.gen
	c.mu.Unlock()

	if status != domain.TranscriptStatusError && status != domain.TranscriptStatusLanguageError {
		return ErrRetryUnavailable
	}
	if upload == nil {
		c.events.SessionError(domain.ErrorCodeAudioMissing, "")
		return ErrNoAudio
	}

	c.commitView(gen, domain.TranscriptView{Status: domain.TranscriptStatusTranscribing})
	return c.fetchTranscript(ctx, gen, upload.ID)
}

// ReUpload discards the audio, its backend identity, the transcript and any
// in-flight work, returning the screen to its initial state.
func (c *CaptureController) ReUpload() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.publish()
}

// Proceed confirms the transcript, requests the translation and constructs
// the immutable handoff record for the delivery screen. Translation failure
// leaves the confirmed transcript untouched so the user can retry.
func (c *CaptureController) Proceed(ctx context.Context, targetLanguage string) (domain.HandoffRecord, error) {
	c.mu.Lock()
	upload := c.upload
	asset := c.asset
	view := c.view
	c.mu.Unlock()

	if upload == nil {
		c.events.SessionError(domain.ErrorCodeAudioMissing, "")
		return domain.HandoffRecord{}, ErrNoAudio
	}
	if view.Status != domain.TranscriptStatusCompleted {
		c.events.SessionError(domain.ErrorCodeTranscriptMissing, string(view.Status))
		return domain.HandoffRecord{}, ErrTranscriptNotReady
	}

	translated, err := c.client.Translate(ctx, upload.ID, targetLanguage)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeTranslationFailed, err.Error())
		return domain.HandoffRecord{}, err
	}

	var original domain.AudioAsset
	if asset != nil {
		original = *asset
	}

	record := c.finalizer.Finalize(ctx, handoffInput{
		AudioID:            upload.ID,
		TargetLanguage:     targetLanguage,
		OriginalAudio:      original,
		OriginalTranscript: view.Text,
		TranslatedText:     translated,
	})
	c.log.Info("proceeding to delivery",
		zap.String("audioId", upload.ID),
		zap.String("targetLanguage", targetLanguage),
	)
	return record, nil
}

// PlayPreview toggles playback of the locally held audio asset.
func (c *CaptureController) PlayPreview(ctx context.Context) error {
	c.mu.Lock()
	asset := c.asset
	current := c.preview
	c.preview = nil
	c.mu.Unlock()

	if current != nil {
		current.stop()
		return nil
	}
	if asset == nil {
		c.events.SessionError(domain.ErrorCodeAudioMissing, "")
		return ErrNoAudio
	}

	session, err := c.player.Play(ctx, asset.Path)
	if err != nil {
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
		return err
	}
	run := newPlaybackRun(domain.WaveTrackOriginal, session, c.cfg.Waveform, c.events)

	// A concurrent call may have installed its own preview while the player
	// was opening. The later install wins; the raced run is stopped.
	c.mu.Lock()
	raced := c.preview
	c.preview = run
	c.mu.Unlock()
	if raced != nil {
		raced.stop()
	}

	go c.watchPreview(run)
	return nil
}

func (c *CaptureController) watchPreview(run *playbackRun) {
	err := <-run.session.Done()

	c.mu.Lock()
	stale := c.preview != run
	if !stale {
		c.preview = nil
	}
	c.mu.Unlock()

	run.stop()
	if err != nil && !stale {
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
	}
}

// State returns a snapshot for the UI.
func (c *CaptureController) State() domain.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := domain.CaptureState{
		Transcript: c.view,
		Recording:  c.rec != nil,
		Previewing: c.preview != nil,
	}
	if c.asset != nil {
		asset := *c.asset
		state.Audio = &asset
	}
	if c.upload != nil {
		upload := *c.upload
		state.Upload = &upload
	}
	return state
}

// Teardown releases everything the screen owns.
func (c *CaptureController) Teardown() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// resetLocked bumps the generation so in-flight completions are ignored,
// aborts any recording or preview, and releases the local audio file.
// Callers hold c.mu and publish afterwards.
func (c *CaptureController) resetLocked() uint64 {
	c.gen++

	if run := c.rec; run != nil {
		c.rec = nil
		go func() {
			run.timer.Stop()
			run.wave.Stop()
			_ = run.session.Abort()
		}()
	}
	if run := c.preview; run != nil {
		c.preview = nil
		go run.stop()
	}

	if c.asset != nil && c.asset.Source == domain.AudioSourceRecorded {
		_ = os.Remove(c.asset.Path)
	}
	c.asset = nil
	c.upload = nil
	c.view = domain.TranscriptView{Status: domain.TranscriptStatusIdle}
	return c.gen
}

// commitView writes the view unless a reset superseded gen, then notifies
// the UI. Stale completions are dropped.
func (c *CaptureController) commitView(gen uint64, view domain.TranscriptView) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.view = view
	c.mu.Unlock()
	c.publish()
}

func (c *CaptureController) publish() {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	c.events.TranscriptChanged(view)
}

func classifyUploadError(err error) domain.ErrorCode {
	switch {
	case api.IsUnsupportedMedia(err):
		return domain.ErrorCodeUnsupportedMedia
	case api.IsNotFound(err):
		return domain.ErrorCodeAudioNotFound
	default:
		return domain.ErrorCodeUploadFailed
	}
}
