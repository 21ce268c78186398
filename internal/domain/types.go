package domain

// Screen identifies which of the two pipeline screens is active.
type Screen string

const (
	ScreenCapture  Screen = "capture"
	ScreenDelivery Screen = "delivery"
)

// TranscriptStatus models the capture screen lifecycle.
type TranscriptStatus string

const (
	TranscriptStatusIdle          TranscriptStatus = "idle"
	TranscriptStatusRecording     TranscriptStatus = "recording"
	TranscriptStatusUploading     TranscriptStatus = "uploading"
	TranscriptStatusTranscribing  TranscriptStatus = "transcribing"
	TranscriptStatusCompleted     TranscriptStatus = "completed"
	TranscriptStatusDraft         TranscriptStatus = "draft"
	TranscriptStatusError         TranscriptStatus = "error"
	TranscriptStatusLanguageError TranscriptStatus = "language_error"
)

// ConversionStatus models the voice-conversion lifecycle on the delivery screen.
type ConversionStatus string

const (
	ConversionStatusIdle       ConversionStatus = "idle"
	ConversionStatusProcessing ConversionStatus = "processing"
	ConversionStatusCompleted  ConversionStatus = "completed"
	ConversionStatusError      ConversionStatus = "error"
)

// AudioSource distinguishes recorded clips from uploaded files.
type AudioSource string

const (
	AudioSourceRecorded AudioSource = "recorded"
	AudioSourceUploaded AudioSource = "uploaded"
)

// WaveTrack names the track a waveform frame was sampled from.
type WaveTrack string

const (
	WaveTrackRecording WaveTrack = "recording"
	WaveTrackOriginal  WaveTrack = "original"
	WaveTrackConverted WaveTrack = "converted"
)

// DownloadFormat is an output container offered for the converted audio.
type DownloadFormat string

const (
	DownloadFormatWAV  DownloadFormat = "wav"
	DownloadFormatMP3  DownloadFormat = "mp3"
	DownloadFormatOGG  DownloadFormat = "ogg"
	DownloadFormatWebM DownloadFormat = "webm"
)

// DownloadFormats lists the formats offered by the delivery screen.
var DownloadFormats = []DownloadFormat{
	DownloadFormatWAV,
	DownloadFormatMP3,
	DownloadFormatOGG,
	DownloadFormatWebM,
}

// Valid reports whether f is one of the offered download formats.
func (f DownloadFormat) Valid() bool {
	for _, offered := range DownloadFormats {
		if f == offered {
			return true
		}
	}
	return false
}

// ErrorCode identifies user-facing failure categories.
type ErrorCode string

const (
	ErrorCodeStartup           ErrorCode = "startup"
	ErrorCodeDurationExceeded  ErrorCode = "duration_exceeded"
	ErrorCodeEmptyAudio        ErrorCode = "empty_audio"
	ErrorCodeUnsupportedMedia  ErrorCode = "unsupported_media"
	ErrorCodeAudioNotFound     ErrorCode = "audio_not_found"
	ErrorCodeUploadFailed      ErrorCode = "upload_failed"
	ErrorCodeTranscriptFailed  ErrorCode = "transcript_failed"
	ErrorCodeLanguageMismatch  ErrorCode = "language_mismatch"
	ErrorCodeTranslationFailed ErrorCode = "translation_failed"
	ErrorCodeConversionFailed  ErrorCode = "conversion_failed"
	ErrorCodeCapture           ErrorCode = "capture"
	ErrorCodePlayback          ErrorCode = "playback"
	ErrorCodeDownloadFailed    ErrorCode = "download_failed"
	ErrorCodeClipboard         ErrorCode = "clipboard"
	ErrorCodeAudioMissing      ErrorCode = "audio_missing"
	ErrorCodeTranscriptMissing ErrorCode = "transcript_missing"
)

// AudioAsset is a locally held recording or selected file.
type AudioAsset struct {
	Path            string      `json:"path"`
	DurationSeconds float64     `json:"durationSeconds"`
	Source          AudioSource `json:"source"`
}

// UploadedAudio is the backend-assigned identity for an uploaded asset.
type UploadedAudio struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// TranscriptView is the capture screen state pushed to the UI.
type TranscriptView struct {
	Status           TranscriptStatus `json:"status"`
	Text             string           `json:"text"`
	DetectedLanguage string           `json:"detectedLanguage,omitempty"`
}

// ConversionView is the delivery screen state pushed to the UI.
type ConversionView struct {
	Status    ConversionStatus `json:"status"`
	RemoteURL string           `json:"remoteUrl,omitempty"`
	LocalPath string           `json:"localPath,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// HandoffRecord carries the capture screen outcome to the delivery screen.
// It is constructed once, at the moment the user proceeds, and never mutated.
type HandoffRecord struct {
	AudioID            string     `json:"audioId"`
	TargetLanguage     string     `json:"targetLanguage"`
	OriginalAudio      AudioAsset `json:"originalAudio"`
	OriginalTranscript string     `json:"originalTranscript"`
	TranslatedText     string     `json:"translatedText"`
	Copied             bool       `json:"copied"`
}

// WaveformFrame is one animation tick of bar levels for a playing track.
type WaveformFrame struct {
	Track  WaveTrack `json:"track"`
	Levels []float64 `json:"levels"`
	Live   bool      `json:"live"`
}

// DownloadResult reports where a converted clip was saved and whether the
// requested container was actually achieved or the original bytes were
// served under the requested extension.
type DownloadResult struct {
	Path       string         `json:"path"`
	Format     DownloadFormat `json:"format"`
	Transcoded bool           `json:"transcoded"`
}

// CaptureState is the capture screen snapshot handed to the UI on demand.
type CaptureState struct {
	Audio      *AudioAsset    `json:"audio,omitempty"`
	Upload     *UploadedAudio `json:"upload,omitempty"`
	Transcript TranscriptView `json:"transcript"`
	Recording  bool           `json:"recording"`
	Previewing bool           `json:"previewing"`
}

// DeliveryState is the delivery screen snapshot handed to the UI on demand.
type DeliveryState struct {
	Conversion   ConversionView   `json:"conversion"`
	PlayingTrack WaveTrack        `json:"playingTrack,omitempty"`
	Formats      []DownloadFormat `json:"formats"`
}
