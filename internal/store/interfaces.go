// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multi-account/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// ErrorClassificator decides whether a failed statement may be retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// StateStore keeps single-use handshake records.
type StateStore interface {
	// Store writes a new record with [StateTTL].
	Store(ctx context.Context, state, nonce string, userID int64, redirectURI string) error
	// Fetch reads without consuming. A missing record is [ErrNotFound].
	Fetch(ctx context.Context, state string) (models.HandshakeState, error)
	// Consume returns and deletes the record when nonce matches. Any failure
	// is [ErrInvalidState]; an existing record is kept for [StateFailureTTL].
	Consume(ctx context.Context, state, nonce string) (models.HandshakeState, error)
	// MarkForceLogin flags the record keeping its remaining TTL.
	MarkForceLogin(ctx context.Context, state string) error
	// Release deletes the record.
	Release(ctx context.Context, state string) error
}

// RateLimiter implements reserve-then-rollback throttling per user.
type RateLimiter interface {
	// Reserve takes one attempt or fails with [ErrTooManyRequests].
	Reserve(ctx context.Context, userID int64) error
	// Rollback returns an attempt taken by Reserve.
	Rollback(ctx context.Context, userID int64) error
}

// MetricsStore keeps rolling success counters and duration samples.
type MetricsStore interface {
	RecordDuration(ctx context.Context, op Operation, ms int64) error
	Increment(ctx context.Context, op Operation, success bool) error
	SuccessRate(ctx context.Context, op Operation) (float64, error)
	RecentDurations(ctx context.Context, op Operation) ([]int64, error)
}

type ApplicationRepository interface {
	FindByUID(ctx context.Context, uid string) (models.Application, error)
}

type GrantRepository interface {
	FindByToken(ctx context.Context, token string) (models.AccessGrant, error)
}

type TokenRepository interface {
	FindByToken(ctx context.Context, token string) (models.AccessToken, error)
	FindByID(ctx context.Context, id int64) (models.AccessToken, error)
	Create(ctx context.Context, token models.AccessToken) (models.AccessToken, error)
	// MarkMultiAccount persists the multi_account, purpose and long_lived
	// columns of token.
	MarkMultiAccount(ctx context.Context, token models.AccessToken) error
	Revoke(ctx context.Context, id int64, at time.Time) error
	TouchLastUsed(ctx context.Context, id int64, at time.Time, ip string) error
}

type OwnerRepository interface {
	FindUser(ctx context.Context, userID int64) (models.User, error)
	FindAccount(ctx context.Context, accountID int64) (models.Account, error)
	FindAccountByUser(ctx context.Context, userID int64) (models.Account, error)
}
