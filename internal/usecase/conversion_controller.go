package usecase

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"revoice/internal/api"
	"revoice/internal/domain"
	"revoice/internal/ports"
)

var (
	ErrNoHandoff           = errors.New("no handoff record is active")
	ErrConversionNotReady  = errors.New("no converted audio is available")
	ErrRetryNotApplicable  = errors.New("retry is only available after a conversion error")
	ErrOriginalUnavailable = errors.New("original audio is not available")
	ErrUnknownFormat       = errors.New("unknown download format")
)

// ConversionConfig controls the delivery screen pipeline.
type ConversionConfig struct {
	Waveform WaveformConfig
}

// ConversionController drives one voice-conversion request per handoff and
// manages playback and download of the original and converted tracks.
type ConversionController struct {
	client     ports.BackendClient
	player     ports.Player
	store      ports.AudioStore
	transcoder ports.Transcoder
	events     ports.EventSink
	log        *zap.Logger
	cfg        ConversionConfig

	mu      sync.Mutex
	record  *domain.HandoffRecord
	started map[string]struct{}
	view    domain.ConversionView
	play    *playbackRun
}

func NewConversionController(
	client ports.BackendClient,
	player ports.Player,
	store ports.AudioStore,
	transcoder ports.Transcoder,
	events ports.EventSink,
	log *zap.Logger,
	cfg ConversionConfig,
) *ConversionController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConversionController{
		client:     client,
		player:     player,
		store:      store,
		transcoder: transcoder,
		events:     events,
		log:        log,
		cfg:        cfg,
		started:    make(map[string]struct{}),
		view:       domain.ConversionView{Status: domain.ConversionStatusIdle},
	}
}

// Begin installs a handoff record on screen entry and triggers the one-shot
// conversion for it. The record is treated as read-only from here on.
func (c *ConversionController) Begin(ctx context.Context, record domain.HandoffRecord) error {
	c.mu.Lock()
	c.stopPlaybackLocked()
	switch {
	case c.record != nil && c.record.AudioID == record.AudioID:
		// Re-entry with the same audio keeps the existing attempt and its
		// result; the dedup guard below prevents a duplicate request.
	default:
		if c.record != nil {
			// A new audio identity supersedes the previous one: its local
			// copy and its dedup key are both released.
			c.store.Release(c.record.AudioID)
			delete(c.started, c.record.AudioID)
		}
		c.view = domain.ConversionView{Status: domain.ConversionStatusIdle}
	}
	c.record = &record
	c.mu.Unlock()

	return c.Initiate(ctx)
}

// Initiate fires the voice-conversion request at most once per audio
// identifier, no matter how many times screen entry re-triggers it.
func (c *ConversionController) Initiate(ctx context.Context) error {
	c.mu.Lock()
	record := c.record
	if record == nil {
		c.mu.Unlock()
		return ErrNoHandoff
	}
	audioID := record.AudioID
	if _, dup := c.started[audioID]; dup {
		c.mu.Unlock()
		c.log.Debug("conversion already started", zap.String("audioId", audioID))
		// Re-entry still refreshes an event-driven UI with the current view.
		c.publish()
		return nil
	}
	c.started[audioID] = struct{}{}
	c.view = domain.ConversionView{Status: domain.ConversionStatusProcessing}
	c.mu.Unlock()
	c.publish()

	remoteURL, err := c.client.ConvertVoice(ctx, audioID, record.TargetLanguage)
	if err != nil {
		c.commitView(audioID, domain.ConversionView{Status: domain.ConversionStatusError})
		code := domain.ErrorCodeConversionFailed
		if api.IsNotFound(err) {
			code = domain.ErrorCodeAudioNotFound
		}
		c.events.SessionError(code, err.Error())
		return err
	}

	view := domain.ConversionView{
		Status:    domain.ConversionStatusCompleted,
		RemoteURL: remoteURL,
	}

	// Best-effort local copy for preview; failure keeps the conversion
	// completed and points the user at download instead.
	data, fetchErr := c.client.FetchAudio(ctx, remoteURL)
	if fetchErr == nil {
		localPath, storeErr := c.store.Materialize(audioID, data, remoteExt(remoteURL))
		if storeErr == nil {
			view.LocalPath = localPath
		} else {
			fetchErr = storeErr
		}
	}
	if fetchErr != nil {
		view.Warning = warningPreviewUnavailable
		c.log.Warn("converted audio preview unavailable",
			zap.String("audioId", audioID),
			zap.Error(fetchErr),
		)
	}

	if !c.commitView(audioID, view) {
		// A new handoff superseded this attempt while it was in flight;
		// drop the copy materialized for the old key.
		c.store.Release(audioID)
		return nil
	}
	c.log.Info("voice conversion completed",
		zap.String("audioId", audioID),
		zap.Bool("previewable", view.LocalPath != ""),
	)
	return nil
}

// warningPreviewUnavailable is a message key the UI layer localizes.
const warningPreviewUnavailable = "preview_unavailable"

// Retry clears the failed attempt and lifts the dedup guard for exactly one
// new request. Only valid in the error state.
func (c *ConversionController) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.record == nil {
		c.mu.Unlock()
		return ErrNoHandoff
	}
	if c.view.Status != domain.ConversionStatusError {
		c.mu.Unlock()
		return ErrRetryNotApplicable
	}
	audioID := c.record.AudioID
	delete(c.started, audioID)
	c.store.Release(audioID)
	c.view = domain.ConversionView{Status: domain.ConversionStatusIdle}
	c.mu.Unlock()
	c.publish()

	return c.Initiate(ctx)
}

// PlayOriginal toggles playback of the handed-off original audio.
func (c *ConversionController) PlayOriginal(ctx context.Context) error {
	c.mu.Lock()
	record := c.record
	c.mu.Unlock()
	if record == nil {
		return ErrNoHandoff
	}
	if record.OriginalAudio.Path == "" {
		c.events.SessionError(domain.ErrorCodePlayback, "original audio reference missing")
		return ErrOriginalUnavailable
	}
	return c.playTrack(ctx, domain.WaveTrackOriginal, record.OriginalAudio.Path)
}

// PlayConverted toggles playback of the converted audio.
func (c *ConversionController) PlayConverted(ctx context.Context) error {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	if view.Status != domain.ConversionStatusCompleted || view.LocalPath == "" {
		c.events.SessionError(domain.ErrorCodePlayback, "converted audio is not ready for preview")
		return ErrConversionNotReady
	}
	return c.playTrack(ctx, domain.WaveTrackConverted, view.LocalPath)
}

// playTrack enforces mutual exclusion between the two tracks: starting one
// stops the other, and starting the already-playing track stops it (pause).
func (c *ConversionController) playTrack(ctx context.Context, track domain.WaveTrack, path string) error {
	c.mu.Lock()
	current := c.play
	c.play = nil
	c.mu.Unlock()

	if current != nil {
		current.stop()
		if current.track == track {
			return nil
		}
	}

	session, err := c.player.Play(ctx, path)
	if err != nil {
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
		return err
	}
	run := newPlaybackRun(track, session, c.cfg.Waveform, c.events)

	// A concurrent call may have installed its own run while the player was
	// opening. The later install wins; the raced run is stopped so only one
	// track is ever audible.
	c.mu.Lock()
	raced := c.play
	c.play = run
	c.mu.Unlock()
	if raced != nil {
		raced.stop()
	}

	go c.watchPlayback(run)
	return nil
}

// watchPlayback waits for natural end of a track, clears the playing state
// and resets the waveform to its static pattern.
func (c *ConversionController) watchPlayback(run *playbackRun) {
	err := <-run.session.Done()

	c.mu.Lock()
	stale := c.play != run
	if !stale {
		c.play = nil
	}
	c.mu.Unlock()

	run.stop()
	if err != nil && !stale {
		c.events.SessionError(domain.ErrorCodePlayback, err.Error())
	}
}

// StopPlayback stops whichever track is playing.
func (c *ConversionController) StopPlayback() {
	c.mu.Lock()
	current := c.play
	c.play = nil
	c.mu.Unlock()

	if current != nil {
		current.stop()
	}
}

// Download materializes the converted audio at destPath in the requested
// container. Re-encoding is best-effort: when it is unavailable or fails,
// the original bytes are served under the requested extension and the
// result reports Transcoded=false.
func (c *ConversionController) Download(ctx context.Context, format domain.DownloadFormat, destPath string) (domain.DownloadResult, error) {
	if !format.Valid() {
		c.events.SessionError(domain.ErrorCodeDownloadFailed, string(format))
		return domain.DownloadResult{}, ErrUnknownFormat
	}

	c.mu.Lock()
	record := c.record
	view := c.view
	c.mu.Unlock()

	if record == nil {
		return domain.DownloadResult{}, ErrNoHandoff
	}
	if view.Status != domain.ConversionStatusCompleted || view.RemoteURL == "" {
		c.events.SessionError(domain.ErrorCodeDownloadFailed, "conversion has not completed")
		return domain.DownloadResult{}, ErrConversionNotReady
	}

	if !strings.HasSuffix(strings.ToLower(destPath), "."+string(format)) {
		destPath += "." + string(format)
	}

	data, ok := c.store.Bytes(record.AudioID)
	if !ok {
		fetched, err := c.client.FetchAudio(ctx, view.RemoteURL)
		if err != nil {
			c.events.SessionError(domain.ErrorCodeDownloadFailed, err.Error())
			return domain.DownloadResult{}, err
		}
		data = fetched
	}

	srcPath, ok := c.store.Path(record.AudioID)
	if !ok {
		materialized, err := c.store.Materialize(record.AudioID, data, remoteExt(view.RemoteURL))
		if err != nil {
			c.events.SessionError(domain.ErrorCodeDownloadFailed, err.Error())
			return domain.DownloadResult{}, err
		}
		srcPath = materialized
	}

	result := domain.DownloadResult{Path: destPath, Format: format, Transcoded: true}
	if err := c.transcoder.Transcode(ctx, srcPath, destPath, format); err != nil {
		c.log.Warn("transcode failed, serving original bytes",
			zap.String("format", string(format)),
			zap.Error(err),
		)
		if writeErr := os.WriteFile(destPath, data, 0o644); writeErr != nil {
			c.events.SessionError(domain.ErrorCodeDownloadFailed, writeErr.Error())
			return domain.DownloadResult{}, writeErr
		}
		result.Transcoded = false
	}

	c.log.Info("converted audio saved",
		zap.String("path", result.Path),
		zap.Bool("transcoded", result.Transcoded),
	)
	return result, nil
}

// State returns a snapshot for the UI.
func (c *ConversionController) State() domain.DeliveryState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := domain.DeliveryState{
		Conversion: c.view,
		Formats:    domain.DownloadFormats,
	}
	if c.play != nil {
		state.PlayingTrack = c.play.track
	}
	return state
}

// Teardown stops playback and releases the local converted copy. The dedup
// guard is lifted with the record: leaving the screen abandons the attempt,
// and the next handoff starts a fresh one.
func (c *ConversionController) Teardown() {
	c.mu.Lock()
	c.stopPlaybackLocked()
	record := c.record
	c.record = nil
	if record != nil {
		delete(c.started, record.AudioID)
	}
	c.view = domain.ConversionView{Status: domain.ConversionStatusIdle}
	c.mu.Unlock()

	if record != nil {
		c.store.Release(record.AudioID)
	}
}

func (c *ConversionController) stopPlaybackLocked() {
	if run := c.play; run != nil {
		c.play = nil
		go run.stop()
	}
}

// commitView writes the view unless the handoff changed underneath the
// in-flight request. It reports whether the view was committed; stale
// completions are dropped.
func (c *ConversionController) commitView(audioID string, view domain.ConversionView) bool {
	c.mu.Lock()
	if c.record == nil || c.record.AudioID != audioID {
		c.mu.Unlock()
		return false
	}
	c.view = view
	c.mu.Unlock()
	c.publish()
	return true
}

func (c *ConversionController) publish() {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	c.events.ConversionChanged(view)
}

func remoteExt(remoteURL string) string {
	ext := path.Ext(remoteURL)
	if ext == "" || len(ext) > 5 {
		return ".wav"
	}
	return ext
}
