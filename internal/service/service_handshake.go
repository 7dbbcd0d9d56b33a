// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
)

// handshakeService is the concrete implementation of [HandshakeService].
type handshakeService struct {
	// states holds the pending handshakes.
	states store.StateStore

	// owners loads the user of a restored handshake.
	owners store.OwnerRepository

	// oauth builds authorize URLs.
	oauth adapter.OAuthClient

	// ids generates state and nonce values (UUID v4).
	ids *utils.UUIDGenerator

	// redirectURI is stored with every state.
	redirectURI string
}

func NewHandshakeService(states store.StateStore, owners store.OwnerRepository, oauth adapter.OAuthClient, redirectURI string) HandshakeService {
	return &handshakeService{
		states:      states,
		owners:      owners,
		oauth:       oauth,
		ids:         utils.NewUUIDGenerator(),
		redirectURI: redirectURI,
	}
}

func (s *handshakeService) Entry(ctx context.Context, userID int64, forceLogin bool) (models.EntryResponse, error) {
	state := s.ids.GenerateRandom()
	nonce := s.ids.GenerateRandom()

	if err := s.states.Store(ctx, state, nonce, userID, s.redirectURI); err != nil {
		logger.FromContext(ctx).Err(err).Int64("user_id", userID).Msg("error storing handshake state")
		return models.EntryResponse{}, fmt.Errorf("error storing handshake state: %w", err)
	}

	return models.EntryResponse{
		AuthorizeURL: s.oauth.AuthCodeURL(state, forceLogin),
		State:        state,
		Nonce:        nonce,
	}, nil
}

func (s *handshakeService) Callback(ctx context.Context, state string) (models.HandshakeState, error) {
	if state == "" {
		return models.HandshakeState{}, fmt.Errorf("%w: state", ErrMissingParameter)
	}

	record, err := s.states.Fetch(ctx, state)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.HandshakeState{}, ErrInvalidState
		}
		return models.HandshakeState{}, fmt.Errorf("error fetching handshake state: %w", err)
	}

	return record, nil
}

func (s *handshakeService) Restore(ctx context.Context, state, nonce string) (models.User, error) {
	if state == "" || nonce == "" {
		return models.User{}, fmt.Errorf("%w: state and nonce", ErrMissingParameter)
	}

	record, err := s.states.Fetch(ctx, state)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrInvalidState
		}
		return models.User{}, fmt.Errorf("error fetching handshake state: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(record.Nonce), []byte(nonce)) != 1 {
		return models.User{}, ErrInvalidState
	}

	// a matched nonce ends the handshake whatever the lookup returns
	defer func() {
		if releaseErr := s.states.Release(ctx, state); releaseErr != nil {
			logger.FromContext(ctx).Warn().Err(releaseErr).Msg("error releasing handshake state")
		}
	}()

	user, err := s.owners.FindUser(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("error finding user of handshake: %w", err)
	}

	return user, nil
}

// ForceLoginCheck implements [HandshakeService]. The sign-out happens at most
// once per handshake.
func (s *handshakeService) ForceLoginCheck(ctx context.Context, signedInUserID int64, state string, forceLogin bool) (bool, error) {
	if !forceLogin || state == "" || signedInUserID == 0 {
		return false, nil
	}

	record, err := s.states.Fetch(ctx, state)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.FromContext(ctx).Warn().Err(err).Msg("force login state fetch failed")
		}
		return false, nil
	}

	if record.UserID == 0 || record.UserID != signedInUserID || record.ForceLoginPerformed {
		return false, nil
	}

	if err = s.states.MarkForceLogin(ctx, state); err != nil {
		return false, fmt.Errorf("error marking force login: %w", err)
	}

	return true, nil
}
