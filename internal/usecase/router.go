package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"revoice/internal/domain"
	"revoice/internal/ports"
)

// ScreenRouter owns the single in-memory handoff record and switches between
// the two screen orchestrators. It performs no network activity itself and
// loses all state on restart.
type ScreenRouter struct {
	capture    *CaptureController
	conversion *ConversionController
	events     ports.EventSink
	log        *zap.Logger

	mu      sync.Mutex
	screen  domain.Screen
	handoff *domain.HandoffRecord
}

func NewScreenRouter(capture *CaptureController, conversion *ConversionController, events ports.EventSink, log *zap.Logger) *ScreenRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScreenRouter{
		capture:    capture,
		conversion: conversion,
		events:     events,
		log:        log,
		screen:     domain.ScreenCapture,
	}
}

// Proceed runs the capture screen's confirm/translate step and, on success,
// stores the handoff record, flips to the delivery screen and triggers its
// one-shot conversion. A failure leaves the router on the capture screen.
func (r *ScreenRouter) Proceed(ctx context.Context, targetLanguage string) (domain.HandoffRecord, error) {
	record, err := r.capture.Proceed(ctx, targetLanguage)
	if err != nil {
		return domain.HandoffRecord{}, err
	}

	r.mu.Lock()
	r.handoff = &record
	r.screen = domain.ScreenDelivery
	r.mu.Unlock()

	r.events.ScreenChanged(domain.ScreenDelivery)
	r.log.Info("switched to delivery screen", zap.String("audioId", record.AudioID))

	if err := r.conversion.Begin(ctx, record); err != nil {
		// The conversion error is already surfaced on the delivery screen,
		// where retry is offered; the transition itself stands.
		r.log.Warn("initial conversion failed", zap.Error(err))
	}
	return record, nil
}

// Back returns to the capture screen, releasing everything the delivery
// screen owns. The handoff record is dropped; a new one is constructed on
// the next proceed.
func (r *ScreenRouter) Back() {
	r.conversion.Teardown()

	r.mu.Lock()
	r.handoff = nil
	r.screen = domain.ScreenCapture
	r.mu.Unlock()

	r.events.ScreenChanged(domain.ScreenCapture)
}

// Screen reports the active screen.
func (r *ScreenRouter) Screen() domain.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

// Handoff returns a copy of the active handoff record, if any. Callers never
// see the stored value, so the record stays immutable.
func (r *ScreenRouter) Handoff() (domain.HandoffRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handoff == nil {
		return domain.HandoffRecord{}, false
	}
	return *r.handoff, true
}

// Shutdown tears down both screens.
func (r *ScreenRouter) Shutdown() {
	r.capture.Teardown()
	r.conversion.Teardown()
}
