// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/instrumentation"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
)

// Switch outcome events accepted from clients.
const (
	SwitchEventSuccess = "switch_success"
	SwitchEventFailure = "switch_failure"
)

// telemetryService writes every outcome twice: to the KV-backed rolling
// metrics read by the operator endpoint and to the Prometheus collectors.
type telemetryService struct {
	// metrics holds the rolling counters and duration samples.
	metrics store.MetricsStore

	// prometheus may be nil.
	prometheus *instrumentation.Metrics

	// eventLog receives the switch events.
	eventLog MultiAccountLogger
}

func NewTelemetryService(metrics store.MetricsStore, prometheus *instrumentation.Metrics, eventLog MultiAccountLogger) TelemetryService {
	return &telemetryService{metrics: metrics, prometheus: prometheus, eventLog: eventLog}
}

func (s *telemetryService) RecordRefresh(ctx context.Context, success bool, reason string, latency time.Duration) {
	log := logger.FromContext(ctx)

	if err := s.metrics.Increment(ctx, store.OperationRefresh, success); err != nil {
		log.Warn().Err(err).Msg("error incrementing refresh counter")
	}
	if err := s.metrics.RecordDuration(ctx, store.OperationRefresh, latency.Milliseconds()); err != nil {
		log.Warn().Err(err).Msg("error recording refresh duration")
	}

	s.prometheus.RecordRefresh(success, reason, latency)
}

// RecordSwitch implements [TelemetryService]. Only success and failure
// events are counted.
func (s *telemetryService) RecordSwitch(ctx context.Context, userID int64, event models.SwitchEvent) error {
	switch event.Event {
	case SwitchEventSuccess:
		event.Success = true
	case SwitchEventFailure:
		event.Success = false
	default:
		return fmt.Errorf("%w: unknown switch event %q", ErrInvalidDataProvided, event.Event)
	}

	s.eventLog.LogAccountSwitch(ctx, userID, event)

	if err := s.metrics.Increment(ctx, store.OperationSwitch, event.Success); err != nil {
		return fmt.Errorf("error incrementing switch counter: %w", err)
	}

	var latency time.Duration
	if event.LatencyMs != nil && *event.LatencyMs >= 0 {
		if err := s.metrics.RecordDuration(ctx, store.OperationSwitch, *event.LatencyMs); err != nil {
			return fmt.Errorf("error recording switch duration: %w", err)
		}
		latency = time.Duration(*event.LatencyMs) * time.Millisecond
	}

	s.prometheus.RecordSwitch(event.Success, latency)
	return nil
}

func (s *telemetryService) Summary(ctx context.Context) (models.MetricsSummary, error) {
	var (
		summary models.MetricsSummary
		err     error
	)

	if summary.SwitchSuccessRate, err = s.metrics.SuccessRate(ctx, store.OperationSwitch); err != nil {
		return models.MetricsSummary{}, fmt.Errorf("error reading switch success rate: %w", err)
	}
	if summary.RefreshSuccessRate, err = s.metrics.SuccessRate(ctx, store.OperationRefresh); err != nil {
		return models.MetricsSummary{}, fmt.Errorf("error reading refresh success rate: %w", err)
	}
	if summary.SwitchDurations, err = s.metrics.RecentDurations(ctx, store.OperationSwitch); err != nil {
		return models.MetricsSummary{}, fmt.Errorf("error reading switch durations: %w", err)
	}
	if summary.RefreshDurations, err = s.metrics.RecentDurations(ctx, store.OperationRefresh); err != nil {
		return models.MetricsSummary{}, fmt.Errorf("error reading refresh durations: %w", err)
	}

	return summary, nil
}
