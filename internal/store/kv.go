// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// NoExpiry is returned by [KeyValue.TTL] for keys that exist but never expire.
const NoExpiry time.Duration = -1

// KeyValue is the small subset of Redis semantics the ephemeral stores need.
// Missing keys are reported as [ErrNotFound].
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	// Set writes value. A ttl of zero keeps the key forever.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// TTL returns the remaining time to live, or [NoExpiry].
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	Incr(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)

	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Close()
}

// NewKeyValue opens the backend named in cfg.Backend.
func NewKeyValue(ctx context.Context, cfg config.KV, log *logger.Logger) (KeyValue, error) {
	switch cfg.Backend {
	case "", config.KVBackendMemory:
		log.Info().Str("func", "NewKeyValue").Msg("using in-memory kv")
		return NewMemoryKV(), nil
	case config.KVBackendValkey:
		kv, err := NewValkeyKV(ctx, cfg)
		if err != nil {
			log.Err(err).Str("func", "NewKeyValue").Str("address", cfg.Address).Msg("error connecting valkey")
			return nil, err
		}
		log.Info().Str("func", "NewKeyValue").Str("address", cfg.Address).Msg("connected to valkey")
		return kv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKVBackend, cfg.Backend)
	}
}
