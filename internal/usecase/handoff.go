package usecase

import (
	"context"

	"go.uber.org/zap"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

type handoffInput struct {
	AudioID            string
	TargetLanguage     string
	OriginalAudio      domain.AudioAsset
	OriginalTranscript string
	TranslatedText     string
}

// handoffFinalizer seals the capture screen outcome into the immutable
// handoff record and copies the translation to the clipboard as a courtesy.
// A clipboard failure is non-fatal; the record still ships.
type handoffFinalizer struct {
	clipboard ports.Clipboard
	events    ports.EventSink
	log       *zap.Logger
}

func newHandoffFinalizer(clipboard ports.Clipboard, events ports.EventSink, log *zap.Logger) handoffFinalizer {
	return handoffFinalizer{clipboard: clipboard, events: events, log: log}
}

func (f handoffFinalizer) Finalize(ctx context.Context, in handoffInput) domain.HandoffRecord {
	record := domain.HandoffRecord{
		AudioID:            in.AudioID,
		TargetLanguage:     in.TargetLanguage,
		OriginalAudio:      in.OriginalAudio,
		OriginalTranscript: in.OriginalTranscript,
		TranslatedText:     in.TranslatedText,
		Copied:             true,
	}

	if f.clipboard == nil {
		record.Copied = false
		return record
	}
	if err := f.clipboard.SetText(ctx, in.TranslatedText); err != nil {
		record.Copied = false
		f.log.Warn("clipboard write failed", zap.Error(err))
		f.events.SessionError(domain.ErrorCodeClipboard, err.Error())
	}
	return record
}
