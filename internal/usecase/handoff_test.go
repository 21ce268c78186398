package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"revoice/internal/domain"
)

func TestHandoffFinalizerCopiesTranslation(t *testing.T) {
	t.Parallel()

	clipboard := &fakeClipboard{}
	events := &fakeEventSink{}
	finalizer := newHandoffFinalizer(clipboard, events, zap.NewNop())

	record := finalizer.Finalize(context.Background(), handoffInput{
		AudioID:        "a1",
		TargetLanguage: "en",
		TranslatedText: "hello",
	})

	if !record.Copied {
		t.Fatalf("expected copied=true")
	}
	if clipboard.last() != "hello" {
		t.Fatalf("clipboard did not receive the translation: %q", clipboard.last())
	}
}

func TestHandoffFinalizerClipboardFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	clipboard := &fakeClipboard{err: errors.New("no clipboard")}
	events := &fakeEventSink{}
	finalizer := newHandoffFinalizer(clipboard, events, zap.NewNop())

	record := finalizer.Finalize(context.Background(), handoffInput{
		AudioID:        "a1",
		TargetLanguage: "en",
		TranslatedText: "hello",
	})

	if record.Copied {
		t.Fatalf("a clipboard failure must clear the copied flag")
	}
	if record.TranslatedText != "hello" {
		t.Fatalf("the record must still carry the translation")
	}
	if code, _ := events.lastError(); code != domain.ErrorCodeClipboard {
		t.Fatalf("unexpected error code: %s", code)
	}
}
