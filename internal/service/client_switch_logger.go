// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

// Client switch events.
const (
	EventSwitchAttempt = "switch_attempt"
	EventSwitchSuccess = SwitchEventSuccess
	EventSwitchFailure = SwitchEventFailure
	EventReload        = "reload"
	EventCacheClear    = "cache_clear"
	EventCSRFRefresh   = "csrf_refresh"
)

const telemetryTimeout = 5 * time.Second

type switchLogger struct {
	// adapter is nil when telemetry forwarding is disabled.
	adapter adapter.ServerAdapter

	now func() time.Time
}

// NewSwitchLogger returns a logger writing through logger.FromContext. When
// serverAdapter is not nil, success and failure records are also forwarded
// to the server on a best-effort basis.
func NewSwitchLogger(serverAdapter adapter.ServerAdapter) SwitchLogger {
	return &switchLogger{adapter: serverAdapter, now: time.Now}
}

func (l *switchLogger) SwitchAttempt(ctx context.Context, accountID string) time.Time {
	startedAt := l.now()
	l.write(ctx, models.SwitchEvent{Event: EventSwitchAttempt, AccountID: accountID, Success: true}, false)
	return startedAt
}

func (l *switchLogger) SwitchSuccess(ctx context.Context, accountID string, startedAt time.Time, reloadCount *int) {
	latency := l.latency(startedAt)
	l.write(ctx, models.SwitchEvent{
		Event:       EventSwitchSuccess,
		AccountID:   accountID,
		Success:     true,
		LatencyMs:   latency,
		ReloadCount: reloadCount,
	}, true)
}

func (l *switchLogger) SwitchFailure(ctx context.Context, accountID, reason string, stage SwitchStage, startedAt time.Time) {
	l.write(ctx, models.SwitchEvent{
		Event:     EventSwitchFailure,
		AccountID: accountID,
		Success:   false,
		Reason:    reason,
		Stage:     string(stage),
		LatencyMs: l.latency(startedAt),
	}, true)
}

func (l *switchLogger) Reload(ctx context.Context, count int) {
	l.write(ctx, models.SwitchEvent{Event: EventReload, Success: true, ReloadCount: &count}, false)
}

func (l *switchLogger) CacheClear(ctx context.Context, success bool, reason string) {
	l.write(ctx, models.SwitchEvent{Event: EventCacheClear, Success: success, Reason: reason}, false)
}

func (l *switchLogger) CSRFRefresh(ctx context.Context, stage string, success bool, reason string) {
	l.write(ctx, models.SwitchEvent{Event: EventCSRFRefresh, Stage: stage, Success: success, Reason: reason}, false)
}

// latency is nil for a zero startedAt.
func (l *switchLogger) latency(startedAt time.Time) *int64 {
	if startedAt.IsZero() {
		return nil
	}
	ms := l.now().Sub(startedAt).Milliseconds()
	return &ms
}

func (l *switchLogger) write(ctx context.Context, event models.SwitchEvent, forward bool) {
	event.Timestamp = l.now().UTC()

	log := logger.FromContext(ctx)
	var e *zerolog.Event
	if event.Success {
		e = log.Info()
	} else {
		e = log.Warn()
	}

	e = e.Str("event", event.Event).Bool("success", event.Success).Time("timestamp", event.Timestamp)
	if event.AccountID != "" {
		e = e.Str("account_id", event.AccountID)
	}
	if event.Reason != "" {
		e = e.Str("reason", event.Reason)
	}
	if event.Stage != "" {
		e = e.Str("stage", event.Stage)
	}
	if event.LatencyMs != nil {
		e = e.Int64("latency_ms", *event.LatencyMs)
	}
	if event.ReloadCount != nil {
		e = e.Int("reload_count", *event.ReloadCount)
	}
	e.Msg("[MultiAccount] " + event.Event)

	if forward && l.adapter != nil {
		l.forward(ctx, event)
	}
}

func (l *switchLogger) forward(ctx context.Context, event models.SwitchEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryTimeout)
	defer cancel()

	if err := l.adapter.SendTelemetry(ctx, event); err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("event", event.Event).Msg("telemetry forwarding failed")
	}
}
