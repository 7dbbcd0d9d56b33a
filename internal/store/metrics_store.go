// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Operation names a measured multi-account operation.
type Operation string

const (
	OperationSwitch  Operation = "switch"
	OperationRefresh Operation = "refresh"
)

const (
	metricsPrefix = "multi_account:metrics:"

	// MetricsTTL is the rolling expiry applied on every write.
	MetricsTTL = 7 * 24 * time.Hour
	// MaxDurationSamples caps each duration list.
	MaxDurationSamples = 1000
)

type kvMetricsStore struct {
	kv KeyValue
}

// NewMetricsStore returns a [MetricsStore] on top of kv.
func NewMetricsStore(kv KeyValue) MetricsStore {
	return &kvMetricsStore{kv: kv}
}

func metricsKey(op Operation, suffix string) string {
	return metricsPrefix + string(op) + "_" + suffix
}

func (m *kvMetricsStore) RecordDuration(ctx context.Context, op Operation, ms int64) error {
	key := metricsKey(op, "duration")

	if err := m.kv.LPush(ctx, key, strconv.FormatInt(ms, 10)); err != nil {
		return fmt.Errorf("record %s duration: %w", op, err)
	}
	if err := m.kv.LTrim(ctx, key, 0, MaxDurationSamples-1); err != nil {
		return fmt.Errorf("record %s duration: %w", op, err)
	}
	if err := m.kv.Expire(ctx, key, MetricsTTL); err != nil {
		return fmt.Errorf("record %s duration: %w", op, err)
	}
	return nil
}

func (m *kvMetricsStore) Increment(ctx context.Context, op Operation, success bool) error {
	suffix := "failure"
	if success {
		suffix = "success"
	}
	key := metricsKey(op, suffix)

	if _, err := m.kv.Incr(ctx, key); err != nil {
		return fmt.Errorf("increment %s %s: %w", op, suffix, err)
	}
	if err := m.kv.Expire(ctx, key, MetricsTTL); err != nil {
		return fmt.Errorf("increment %s %s: %w", op, suffix, err)
	}
	return nil
}

// SuccessRate returns success/(success+failure) as a percentage rounded to two
// decimals, or 0 when nothing was recorded.
func (m *kvMetricsStore) SuccessRate(ctx context.Context, op Operation) (float64, error) {
	success, err := m.counter(ctx, metricsKey(op, "success"))
	if err != nil {
		return 0, err
	}
	failure, err := m.counter(ctx, metricsKey(op, "failure"))
	if err != nil {
		return 0, err
	}

	total := success + failure
	if total == 0 {
		return 0, nil
	}
	return math.Round(float64(success)/float64(total)*100*100) / 100, nil
}

// RecentDurations returns the recorded samples, most recent first.
func (m *kvMetricsStore) RecentDurations(ctx context.Context, op Operation) ([]int64, error) {
	raw, err := m.kv.LRange(ctx, metricsKey(op, "duration"), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("recent %s durations: %w", op, err)
	}

	durations := make([]int64, 0, len(raw))
	for _, v := range raw {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		durations = append(durations, ms)
	}
	return durations, nil
}

func (m *kvMetricsStore) counter(ctx context.Context, key string) (int64, error) {
	raw, err := m.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}
