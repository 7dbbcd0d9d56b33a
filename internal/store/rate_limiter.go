// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const ratePrefix = "multi_account:rate:"

// RateLimitFamilyRefresh scopes refresh attempts.
const RateLimitFamilyRefresh = "multi_account_refresh"

type kvRateLimiter struct {
	kv     KeyValue
	family string
	limit  int64
	window time.Duration
}

// NewRateLimiter returns a fixed-window [RateLimiter] allowing limit
// attempts per window for each key within family.
func NewRateLimiter(kv KeyValue, family string, limit int, window time.Duration) RateLimiter {
	return &kvRateLimiter{kv: kv, family: family, limit: int64(limit), window: window}
}

func (r *kvRateLimiter) key(userID int64) string {
	return ratePrefix + r.family + ":" + strconv.FormatInt(userID, 10)
}

func (r *kvRateLimiter) Reserve(ctx context.Context, userID int64) error {
	key := r.key(userID)

	count, err := r.kv.Incr(ctx, key)
	if err != nil {
		return fmt.Errorf("reserve rate limit: %w", err)
	}
	if count == 1 {
		if err := r.kv.Expire(ctx, key, r.window); err != nil {
			return fmt.Errorf("reserve rate limit: %w", err)
		}
	}

	if count > r.limit {
		if _, err := r.kv.Decr(ctx, key); err != nil {
			return fmt.Errorf("reserve rate limit: %w", err)
		}
		return ErrTooManyRequests
	}
	return nil
}

func (r *kvRateLimiter) Rollback(ctx context.Context, userID int64) error {
	key := r.key(userID)

	count, err := r.kv.Decr(ctx, key)
	if err != nil {
		return fmt.Errorf("rollback rate limit: %w", err)
	}
	if count < 0 {
		// the window expired between reserve and rollback
		if err := r.kv.Del(ctx, key); err != nil {
			return fmt.Errorf("rollback rate limit: %w", err)
		}
	}
	return nil
}
