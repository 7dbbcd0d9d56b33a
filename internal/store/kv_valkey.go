// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/valkey-io/valkey-go"
)

type valkeyKV struct {
	client valkey.Client
}

// NewValkeyKV connects to a Valkey (or Redis) server.
func NewValkeyKV(ctx context.Context, cfg config.KV) (KeyValue, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting valkey: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting valkey (ping): %w", err)
	}

	return NewValkeyKVFromClient(client), nil
}

// NewValkeyKVFromClient wraps an existing client.
func NewValkeyKVFromClient(client valkey.Client) KeyValue {
	return &valkeyKV{client: client}
}

func (v *valkeyKV) Get(ctx context.Context, key string) (string, error) {
	value, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("valkey get %s: %w", key, err)
	}
	return value, nil
}

func (v *valkeyKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = v.client.B().Set().Key(key).Value(value).PxMilliseconds(ttl.Milliseconds()).Build()
	} else {
		cmd = v.client.B().Set().Key(key).Value(value).Build()
	}

	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

func (v *valkeyKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := v.client.Do(ctx, v.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del: %w", err)
	}
	return nil
}

func (v *valkeyKV) TTL(ctx context.Context, key string) (time.Duration, error) {
	ms, err := v.client.Do(ctx, v.client.B().Pttl().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey pttl %s: %w", key, err)
	}

	switch ms {
	case -2:
		return 0, ErrNotFound
	case -1:
		return NoExpiry, nil
	default:
		return time.Duration(ms) * time.Millisecond, nil
	}
}

func (v *valkeyKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	n, err := v.client.Do(ctx, v.client.B().Pexpire().Key(key).Milliseconds(ttl.Milliseconds()).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("valkey pexpire %s: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (v *valkeyKV) Incr(ctx context.Context, key string) (int64, error) {
	n, err := v.client.Do(ctx, v.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey incr %s: %w", key, err)
	}
	return n, nil
}

func (v *valkeyKV) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	result, err := v.client.Do(ctx, v.client.B().Incrby().Key(key).Increment(n).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey incrby %s: %w", key, err)
	}
	return result, nil
}

func (v *valkeyKV) Decr(ctx context.Context, key string) (int64, error) {
	n, err := v.client.Do(ctx, v.client.B().Decr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey decr %s: %w", key, err)
	}
	return n, nil
}

func (v *valkeyKV) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	if err := v.client.Do(ctx, v.client.B().Lpush().Key(key).Element(values...).Build()).Error(); err != nil {
		return fmt.Errorf("valkey lpush %s: %w", key, err)
	}
	return nil
}

func (v *valkeyKV) LTrim(ctx context.Context, key string, start, stop int64) error {
	if err := v.client.Do(ctx, v.client.B().Ltrim().Key(key).Start(start).Stop(stop).Build()).Error(); err != nil {
		return fmt.Errorf("valkey ltrim %s: %w", key, err)
	}
	return nil
}

func (v *valkeyKV) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := v.client.Do(ctx, v.client.B().Lrange().Key(key).Start(start).Stop(stop).Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("valkey lrange %s: %w", key, err)
	}
	return values, nil
}

func (v *valkeyKV) Close() {
	v.client.Close()
}
