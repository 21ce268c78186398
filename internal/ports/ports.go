package ports

import (
	"context"
	"time"

	"revoice/internal/domain"
)

// TranscriptPayload is the backend response for a transcript fetch.
type TranscriptPayload struct {
	Text             string
	DetectedLanguage string
}

// BackendClient talks to the voice-translation backend over HTTP.
type BackendClient interface {
	UploadAudio(ctx context.Context, path string) (domain.UploadedAudio, error)
	FetchTranscript(ctx context.Context, audioID string) (TranscriptPayload, error)
	UpdateTranscript(ctx context.Context, audioID string, text string) error
	Translate(ctx context.Context, audioID string, targetLanguage string) (string, error)
	ConvertVoice(ctx context.Context, audioID string, targetLanguage string) (string, error)
	FetchAudio(ctx context.Context, audioURL string) ([]byte, error)
}

// RecordConfig describes how the microphone should be captured.
type RecordConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
	MaxDuration time.Duration
}

// RecordingSession is a live microphone capture writing to a local file.
type RecordingSession interface {
	// Path is the output file the session writes to.
	Path() string
	// Stop finalizes the output file.
	Stop() error
	// Abort stops capture and removes the output file.
	Abort() error
}

// Recorder creates microphone capture sessions.
type Recorder interface {
	Start(ctx context.Context, cfg RecordConfig) (RecordingSession, error)
}

// DurationProber reads the real duration of a media file.
type DurationProber interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// PlaybackSession is an active playback of one local audio file.
type PlaybackSession interface {
	// Levels streams normalized amplitude samples while the track plays.
	// A nil channel means live analysis is unavailable for this session.
	Levels() <-chan float64
	// Done is closed (after delivering at most one error) when playback ends.
	Done() <-chan error
	Stop() error
}

// Player starts audio playback sessions.
type Player interface {
	Play(ctx context.Context, path string) (PlaybackSession, error)
}

// Transcoder re-encodes an audio file into a requested container format.
type Transcoder interface {
	Transcode(ctx context.Context, src string, dst string, format domain.DownloadFormat) error
}

// AudioStore owns locally materialized copies of fetched audio for the
// lifetime of a session.
type AudioStore interface {
	// Materialize writes data to a temp file owned by the store and caches
	// the bytes under key. It returns the file path.
	Materialize(key string, data []byte, ext string) (string, error)
	Path(key string) (string, bool)
	Bytes(key string) ([]byte, bool)
	// Release drops the cached bytes and removes the temp file for key.
	Release(key string)
	// Close releases everything the store still owns.
	Close()
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink pushes orchestration state to the UI.
type EventSink interface {
	TranscriptChanged(view domain.TranscriptView)
	ConversionChanged(view domain.ConversionView)
	ScreenChanged(screen domain.Screen)
	WaveformFrame(frame domain.WaveformFrame)
	SessionError(code domain.ErrorCode, detail string)
}
