// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multi-account/models"
)

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// RolloutGate decides who may use the refresh flow.
type RolloutGate interface {
	// RefreshFlowEnabled reports the global switch.
	RefreshFlowEnabled() bool
	// ShouldEnableForUser is deterministic for a given configuration.
	ShouldEnableForUser(userID int64) bool
}

// OwnerResolver turns a resource owner id into the explicit {User, Account}
// pair once, at the trust boundary.
type OwnerResolver interface {
	// Resolve fails with ErrResourceOwnerNotFound or ErrAccountNotFound.
	Resolve(ctx context.Context, resourceOwnerID int64) (models.ResourceOwner, error)
	// Account looks up a public account by id.
	Account(ctx context.Context, accountID int64) (models.Account, error)
}

// MultiAccountLogger writes the structured multi-account event log.
type MultiAccountLogger interface {
	LogAccountSwitch(ctx context.Context, userID int64, event models.SwitchEvent)
	LogRefreshSuccess(ctx context.Context, refreshTokenID, userID int64, latency time.Duration)
	LogRefreshFailure(ctx context.Context, refreshTokenID, userID int64, err error)
}

// TelemetryService keeps the switch and refresh counters.
type TelemetryService interface {
	// RecordRefresh never fails; storage errors are logged.
	RecordRefresh(ctx context.Context, success bool, reason string, latency time.Duration)
	// RecordSwitch stores a client reported switch outcome.
	RecordSwitch(ctx context.Context, userID int64, event models.SwitchEvent) error
	// Summary returns success rates and recent durations.
	Summary(ctx context.Context) (models.MetricsSummary, error)
}

// HandshakeService runs the server side of the add-account handshake.
type HandshakeService interface {
	// Entry registers a fresh state/nonce pair for userID and returns the
	// authorize URL.
	Entry(ctx context.Context, userID int64, forceLogin bool) (models.EntryResponse, error)

	// Callback checks that state is still pending and returns its record.
	Callback(ctx context.Context, state string) (models.HandshakeState, error)

	// Restore validates the pair without consuming it, releases it and
	// returns the user that started the handshake.
	Restore(ctx context.Context, state, nonce string) (models.User, error)

	// ForceLoginCheck marks the state and reports true when the signed-in
	// user must be signed out before authorizing. signedInUserID is 0 when
	// nobody is signed in.
	ForceLoginCheck(ctx context.Context, signedInUserID int64, state string, forceLogin bool) (bool, error)
}

// ConsumeService exchanges the authorization code delivered to the popup.
type ConsumeService interface {
	Consume(ctx context.Context, payload models.HandshakePayload) (models.ConsumeResponse, error)
}

// RefreshResult is a minted session credential and its owner.
type RefreshResult struct {
	AccessToken models.AccessToken
	Owner       models.ResourceOwner
}

// RefreshService exchanges refresh credentials for session credentials.
type RefreshService interface {
	// CheckEligibility fails with ErrRefreshFlowDisabled or
	// ErrRolloutExcluded. An unknown token passes and is rejected by Refresh.
	CheckEligibility(ctx context.Context, refreshToken string) error

	// Refresh fails with a [*RefreshError].
	Refresh(ctx context.Context, refreshToken, clientIP string) (RefreshResult, error)
}

// RefreshTokenIssuer mints refresh credentials for an authenticated user.
type RefreshTokenIssuer interface {
	Issue(ctx context.Context, userID int64) (models.AccessToken, models.Account, error)
}

// SessionService signs and parses the web sign-in cookie.
type SessionService interface {
	CreateSession(ctx context.Context, userID int64) (models.SessionToken, error)
	ParseSession(ctx context.Context, tokenString string) (models.SessionToken, error)
}

// TokenAuthenticator resolves bearer credentials.
type TokenAuthenticator interface {
	// Authenticate fails with ErrAccessTokenInvalid for unknown, revoked or
	// expired tokens. Last-used bookkeeping is updated on success.
	Authenticate(ctx context.Context, bearerToken, clientIP string) (models.AccessToken, error)
}
