// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
)

// Refresh credentials issued for an existing session.
const (
	RefreshTokenScopes   = "read write follow"
	RefreshTokenLifetime = 10 * 365 * 24 * time.Hour
)

type refreshTokenIssuer struct {
	applications store.ApplicationRepository
	tokens       store.TokenRepository
	owners       OwnerResolver
	clientID     string

	now      func() time.Time
	newToken func() (string, error)
}

func NewRefreshTokenIssuer(applications store.ApplicationRepository, tokens store.TokenRepository, owners OwnerResolver, clientID string) RefreshTokenIssuer {
	return &refreshTokenIssuer{
		applications: applications,
		tokens:       tokens,
		owners:       owners,
		clientID:     clientID,
		now:          time.Now,
		newToken: func() (string, error) {
			return utils.GenerateToken(sessionTokenBytes)
		},
	}
}

// Issue implements [RefreshTokenIssuer]. The token is bound to the
// multi-account application, carries the refresh flags and expires_in of ten
// years.
func (i *refreshTokenIssuer) Issue(ctx context.Context, userID int64) (models.AccessToken, models.Account, error) {
	log := logger.FromContext(ctx)

	application, err := i.applications.FindByUID(ctx, i.clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error().Msg("multi-account application not found for refresh_token")
			return models.AccessToken{}, models.Account{}, ErrApplicationNotFound
		}
		return models.AccessToken{}, models.Account{}, fmt.Errorf("error finding application: %w", err)
	}

	owner, err := i.owners.Resolve(ctx, userID)
	if err != nil {
		return models.AccessToken{}, models.Account{}, err
	}

	value, err := i.newToken()
	if err != nil {
		return models.AccessToken{}, models.Account{}, fmt.Errorf("error generating refresh token: %w", err)
	}

	lifetime := RefreshTokenLifetime
	token := models.AccessToken{
		Token:           value,
		ResourceOwnerID: owner.UserID(),
		ApplicationID:   application.ID,
		Scopes:          RefreshTokenScopes,
		ExpiresIn:       &lifetime,
		CreatedAt:       i.now(),
	}
	token.MarkAsRefreshCredential()

	created, err := i.tokens.Create(ctx, token)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("multi-account token refresh failed")
		return models.AccessToken{}, models.Account{}, fmt.Errorf("error creating refresh token: %w", err)
	}

	return created, owner.Account, nil
}
