// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

// Event names of the multi-account log.
const (
	EventAccountSwitch  = "multi_account_switch"
	EventRefreshSuccess = "multi_account_refresh_success"
	EventRefreshFailure = "multi_account_refresh_failure"
)

type multiAccountLogger struct {
	now func() time.Time
}

// NewMultiAccountLogger writes through the logger stored in ctx so request
// fields such as trace_id are kept.
func NewMultiAccountLogger() MultiAccountLogger {
	return &multiAccountLogger{now: time.Now}
}

func (l *multiAccountLogger) timestamp() string {
	return l.now().UTC().Format(time.RFC3339)
}

func (l *multiAccountLogger) LogAccountSwitch(ctx context.Context, userID int64, event models.SwitchEvent) {
	log := logger.FromContext(ctx)

	entry := log.Info()
	msg := "account switch successful"
	if !event.Success {
		entry = log.Warn()
		msg = "account switch failed"
	}

	entry = entry.
		Str("event", EventAccountSwitch).
		Int64("user_id", userID).
		Str("account_id", event.AccountID).
		Bool("success", event.Success).
		Str("timestamp", l.timestamp())
	if event.Reason != "" {
		entry = entry.Str("reason", event.Reason)
	}
	if event.LatencyMs != nil {
		entry = entry.Int64("latency_ms", *event.LatencyMs)
	}

	entry.Msg(msg)
}

func (l *multiAccountLogger) LogRefreshSuccess(ctx context.Context, refreshTokenID, userID int64, latency time.Duration) {
	logger.FromContext(ctx).Info().
		Str("event", EventRefreshSuccess).
		Int64("refresh_token_id", refreshTokenID).
		Int64("user_id", userID).
		Int64("latency_ms", latency.Milliseconds()).
		Str("timestamp", l.timestamp()).
		Msg("refresh successful")
}

func (l *multiAccountLogger) LogRefreshFailure(ctx context.Context, refreshTokenID, userID int64, err error) {
	entry := logger.FromContext(ctx).Error().
		Str("event", EventRefreshFailure).
		Int64("refresh_token_id", refreshTokenID).
		Str("timestamp", l.timestamp())
	if err != nil {
		entry = entry.Str("error", err.Error())
	}
	if userID != 0 {
		entry = entry.Int64("user_id", userID)
	}

	entry.Msg("refresh failure")
}
