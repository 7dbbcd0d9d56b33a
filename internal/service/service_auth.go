// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
)

// sessionService is the concrete implementation of SessionService.
// It signs the web sign-in cookie with HMAC-SHA256 JWTs.
type sessionService struct {
	// signKey is the HMAC secret used to sign and verify session JWTs.
	signKey string

	// issuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	issuer string

	// duration controls how long a newly issued session remains valid.
	duration time.Duration
}

// NewSessionService constructs a SessionService populated with the signing
// parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewSessionService(cfg config.App) SessionService {
	return &sessionService{
		signKey:  cfg.SessionSignKey,
		issuer:   cfg.SessionIssuer,
		duration: cfg.SessionDuration,
	}
}

// CreateSession issues a signed JWT whose subject is userID.
func (s *sessionService) CreateSession(ctx context.Context, userID int64) (models.SessionToken, error) {
	if userID == 0 {
		return models.SessionToken{}, ErrInvalidDataProvided
	}

	token, err := utils.GenerateJWTToken(s.issuer, userID, s.duration, s.signKey)
	if err != nil {
		logger.FromContext(ctx).Err(err).Int64("user_id", userID).Msg("session creation failed")
		return models.SessionToken{}, fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
	}

	return token, nil
}

// ParseSession validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrSessionExpiredOrInvalid so that callers do not need to inspect low-level
// JWT errors.
func (s *sessionService) ParseSession(ctx context.Context, tokenString string) (models.SessionToken, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, s.signKey, s.issuer)
	if err != nil {
		return models.SessionToken{}, ErrSessionExpiredOrInvalid
	}

	userID, err := token.GetUserID()
	if err != nil {
		return models.SessionToken{}, ErrSessionExpiredOrInvalid
	}
	token.UserID = userID

	return token, nil
}

// tokenAuthenticator is the concrete implementation of TokenAuthenticator.
type tokenAuthenticator struct {
	tokens store.TokenRepository
	now    func() time.Time
}

func NewTokenAuthenticator(tokens store.TokenRepository) TokenAuthenticator {
	return &tokenAuthenticator{tokens: tokens, now: time.Now}
}

func (a *tokenAuthenticator) Authenticate(ctx context.Context, bearerToken, clientIP string) (models.AccessToken, error) {
	if bearerToken == "" {
		return models.AccessToken{}, ErrUnauthenticated
	}

	token, err := a.tokens.FindByToken(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.AccessToken{}, ErrAccessTokenInvalid
		}
		return models.AccessToken{}, fmt.Errorf("error finding access token: %w", err)
	}

	now := a.now()
	if !token.Accessible(now) {
		return models.AccessToken{}, ErrAccessTokenInvalid
	}

	if err = a.tokens.TouchLastUsed(ctx, token.ID, now, clientIP); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("token_id", token.ID).Msg("error updating token last use")
	} else {
		token.LastUsedAt = &now
		if clientIP != "" {
			token.LastUsedIP = &clientIP
		}
	}

	return token, nil
}
