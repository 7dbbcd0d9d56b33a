// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/instrumentation"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
)

// consumeService is the concrete implementation of [ConsumeService].
type consumeService struct {
	states       store.StateStore
	applications store.ApplicationRepository
	grants       store.GrantRepository
	tokens       store.TokenRepository
	owners       OwnerResolver
	oauth        adapter.OAuthClient

	// prometheus may be nil.
	prometheus *instrumentation.Metrics

	// clientID is the uid of the multi-account OAuth application.
	clientID string

	// refreshFlow decides whether consumed tokens become refresh
	// credentials or stay plain multi-account tokens.
	refreshFlow bool
}

func NewConsumeService(
	states store.StateStore,
	applications store.ApplicationRepository,
	grants store.GrantRepository,
	tokens store.TokenRepository,
	owners OwnerResolver,
	oauth adapter.OAuthClient,
	prometheus *instrumentation.Metrics,
	clientID string,
	refreshFlow bool,
) ConsumeService {
	return &consumeService{
		states:       states,
		applications: applications,
		grants:       grants,
		tokens:       tokens,
		owners:       owners,
		oauth:        oauth,
		prometheus:   prometheus,
		clientID:     clientID,
		refreshFlow:  refreshFlow,
	}
}

// Consume implements [ConsumeService].
//
// The state is consumed first, so a replayed or forged callback never
// reaches the authorization server. The code must belong to the
// multi-account application. A failure to persist the multi-account flags is
// logged and does not fail the call.
func (s *consumeService) Consume(ctx context.Context, payload models.HandshakePayload) (resp models.ConsumeResponse, err error) {
	log := logger.FromContext(ctx)
	defer func() { s.prometheus.RecordConsume(err == nil) }()

	switch {
	case payload.State == "":
		return models.ConsumeResponse{}, fmt.Errorf("%w: state", ErrMissingParameter)
	case payload.Nonce == "":
		return models.ConsumeResponse{}, fmt.Errorf("%w: nonce", ErrMissingParameter)
	case payload.AuthorizationCode == "":
		return models.ConsumeResponse{}, fmt.Errorf("%w: authorization_code", ErrMissingParameter)
	}

	if _, err = s.states.Consume(ctx, payload.State, payload.Nonce); err != nil {
		log.Warn().Err(err).Msg("multi-account invalid state")
		if errors.Is(err, store.ErrInvalidState) {
			return models.ConsumeResponse{}, ErrInvalidState
		}
		return models.ConsumeResponse{}, fmt.Errorf("error consuming state: %w", err)
	}

	application, err := s.applications.FindByUID(ctx, s.clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ConsumeResponse{}, ErrApplicationNotFound
		}
		return models.ConsumeResponse{}, fmt.Errorf("error finding application: %w", err)
	}

	grant, err := s.grants.FindByToken(ctx, payload.AuthorizationCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ConsumeResponse{}, ErrGrantNotFound
		}
		return models.ConsumeResponse{}, fmt.Errorf("error finding grant: %w", err)
	}
	if grant.ApplicationID != application.ID {
		return models.ConsumeResponse{}, ErrGrantMismatch
	}

	token, err := s.exchange(ctx, payload.AuthorizationCode)
	if err != nil {
		log.Warn().Err(err).Msg("multi-account token exchange failed")
		return models.ConsumeResponse{}, err
	}

	token.MultiAccount = true
	if s.refreshFlow {
		token.MarkAsRefreshCredential()
	}
	if markErr := s.tokens.MarkMultiAccount(ctx, token); markErr != nil {
		log.Warn().Err(markErr).Int64("token_id", token.ID).Msg("error marking multi-account token")
	}

	owner, err := s.owners.Resolve(ctx, token.ResourceOwnerID)
	if err != nil {
		return models.ConsumeResponse{}, err
	}

	return models.ConsumeResponse{
		TokenResponse: models.NewTokenResponse(token, owner.Account),
		State:         payload.State,
		Nonce:         payload.Nonce,
	}, nil
}

// exchange trades the code at the authorization server and loads the issued
// token from the grant store.
func (s *consumeService) exchange(ctx context.Context, code string) (models.AccessToken, error) {
	value, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, adapter.ErrTokenExchangeUnauthorized) {
			return models.AccessToken{}, fmt.Errorf("%w: %w", ErrTokenExchangeRejected, err)
		}
		return models.AccessToken{}, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	token, err := s.tokens.FindByToken(ctx, value)
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: issued token not found: %w", ErrTokenExchangeFailed, err)
	}

	return token, nil
}
