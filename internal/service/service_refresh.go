// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
)

// sessionTokenBytes is the entropy of minted session tokens.
const sessionTokenBytes = 32

// refreshService is the concrete implementation of [RefreshService].
type refreshService struct {
	// tokens looks up refresh credentials and stores session credentials.
	tokens store.TokenRepository

	// owners resolves the {User, Account} of a refresh credential.
	owners OwnerResolver

	// limiter is the per-user refresh budget. Every reservation taken is
	// rolled back when a later step fails.
	limiter store.RateLimiter

	// gate gates the whole flow.
	gate RolloutGate

	// telemetry and eventLog record every outcome.
	telemetry TelemetryService
	eventLog  MultiAccountLogger

	// sessionTTL is the expires_in of minted session credentials.
	sessionTTL time.Duration

	now      func() time.Time
	newToken func() (string, error)
}

func NewRefreshService(
	tokens store.TokenRepository,
	owners OwnerResolver,
	limiter store.RateLimiter,
	gate RolloutGate,
	telemetry TelemetryService,
	eventLog MultiAccountLogger,
	sessionTTL time.Duration,
) RefreshService {
	return &refreshService{
		tokens:     tokens,
		owners:     owners,
		limiter:    limiter,
		gate:       gate,
		telemetry:  telemetry,
		eventLog:   eventLog,
		sessionTTL: sessionTTL,
		now:        time.Now,
		newToken: func() (string, error) {
			return utils.GenerateToken(sessionTokenBytes)
		},
	}
}

// CheckEligibility implements [RefreshService]. Lookup failures are not
// reported here; Refresh classifies them.
func (s *refreshService) CheckEligibility(ctx context.Context, refreshToken string) error {
	if !s.gate.RefreshFlowEnabled() {
		return ErrRefreshFlowDisabled
	}

	if refreshToken == "" {
		return nil
	}

	token, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil
	}

	owner, err := s.owners.Resolve(ctx, token.ResourceOwnerID)
	if err != nil {
		return nil
	}

	if !s.gate.ShouldEnableForUser(owner.UserID()) {
		return ErrRolloutExcluded
	}

	return nil
}

// Refresh implements [RefreshService].
//
// Steps:
//  1. resolve the refresh credential: missing → 401, revoked → 401, without
//     refresh flags → 422;
//  2. resolve its owner: missing user or account → 404;
//  3. reserve one attempt of the user's refresh budget → 429 when exhausted;
//  4. touch the refresh credential, mint a session credential bound to the
//     same application and scopes, touch it. Any failure here rolls the
//     reservation back → 500.
//
// Every outcome is logged and counted with the latency measured from entry.
func (s *refreshService) Refresh(ctx context.Context, refreshToken, clientIP string) (result RefreshResult, err error) {
	start := s.now()

	var refreshTokenID, userID int64
	defer func() {
		latency := s.now().Sub(start)
		if err != nil {
			s.eventLog.LogRefreshFailure(ctx, refreshTokenID, userID, err)
			s.telemetry.RecordRefresh(ctx, false, refreshFailureReason(err), latency)
			return
		}
		s.eventLog.LogRefreshSuccess(ctx, refreshTokenID, userID, latency)
		s.telemetry.RecordRefresh(ctx, true, "", latency)
	}()

	token, err := s.findRefreshToken(ctx, refreshToken)
	if err != nil {
		return RefreshResult{}, err
	}
	refreshTokenID = token.ID

	owner, err := s.owners.Resolve(ctx, token.ResourceOwnerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			return RefreshResult{}, newRefreshError(http.StatusNotFound, ErrAccountNotFound)
		case errors.Is(err, ErrResourceOwnerNotFound):
			return RefreshResult{}, newRefreshError(http.StatusNotFound, ErrUserNotFound)
		default:
			return RefreshResult{}, newRefreshError(http.StatusInternalServerError, fmt.Errorf("%w: %w", ErrInternal, err))
		}
	}
	userID = owner.UserID()

	if err = s.limiter.Reserve(ctx, userID); err != nil {
		if errors.Is(err, store.ErrTooManyRequests) {
			return RefreshResult{}, newRefreshError(http.StatusTooManyRequests, ErrTooManyRequests)
		}
		return RefreshResult{}, newRefreshError(http.StatusInternalServerError, fmt.Errorf("%w: %w", ErrInternal, err))
	}

	session, err := s.mintSession(ctx, token, clientIP)
	if err != nil {
		if rollbackErr := s.limiter.Rollback(ctx, userID); rollbackErr != nil {
			logger.FromContext(ctx).Warn().Err(rollbackErr).Int64("user_id", userID).Msg("error rolling back refresh rate limit")
		}
		return RefreshResult{}, newRefreshError(http.StatusInternalServerError, fmt.Errorf("%w: %w", ErrInternal, err))
	}

	return RefreshResult{AccessToken: session, Owner: owner}, nil
}

func (s *refreshService) findRefreshToken(ctx context.Context, refreshToken string) (models.AccessToken, error) {
	if refreshToken == "" {
		return models.AccessToken{}, newRefreshError(http.StatusBadRequest, ErrRefreshTokenRequired)
	}

	token, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AccessToken{}, newRefreshError(http.StatusUnauthorized, ErrInvalidRefreshToken)
		}
		return models.AccessToken{}, newRefreshError(http.StatusInternalServerError, fmt.Errorf("%w: %w", ErrInternal, err))
	}

	if token.Revoked(s.now()) {
		return models.AccessToken{}, newRefreshError(http.StatusUnauthorized, ErrRefreshTokenRevoked)
	}

	if !token.IsRefreshCredential() {
		return models.AccessToken{}, newRefreshError(http.StatusUnprocessableEntity, ErrNotLongLived)
	}

	return token, nil
}

func (s *refreshService) mintSession(ctx context.Context, refresh models.AccessToken, clientIP string) (models.AccessToken, error) {
	now := s.now()

	if err := s.tokens.TouchLastUsed(ctx, refresh.ID, now, clientIP); err != nil {
		return models.AccessToken{}, fmt.Errorf("error touching refresh token: %w", err)
	}

	value, err := s.newToken()
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("error generating session token: %w", err)
	}

	ttl := s.sessionTTL
	session, err := s.tokens.Create(ctx, models.AccessToken{
		Token:           value,
		ResourceOwnerID: refresh.ResourceOwnerID,
		ApplicationID:   refresh.ApplicationID,
		Scopes:          refresh.Scopes,
		ExpiresIn:       &ttl,
		CreatedAt:       now,
		MultiAccount:    true,
	})
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("error creating session token: %w", err)
	}

	if err = s.tokens.TouchLastUsed(ctx, session.ID, now, clientIP); err != nil {
		return models.AccessToken{}, fmt.Errorf("error touching session token: %w", err)
	}
	lastUsed := now
	session.LastUsedAt = &lastUsed

	return session, nil
}

// refreshFailureReason is the low-cardinality label of a failure.
func refreshFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrRefreshTokenRequired):
		return "missing_token"
	case errors.Is(err, ErrInvalidRefreshToken):
		return "invalid_token"
	case errors.Is(err, ErrRefreshTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrNotLongLived):
		return "not_long_lived"
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrUserNotFound):
		return "owner_not_found"
	case errors.Is(err, ErrTooManyRequests):
		return "rate_limited"
	default:
		return "internal"
	}
}
