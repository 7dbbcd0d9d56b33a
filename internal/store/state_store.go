// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

const (
	statePrefix = "multi_account:state:"

	// StateTTL bounds the lifetime of a pending handshake.
	StateTTL = 15 * time.Minute
	// StateFailureTTL replaces StateTTL after a failed consume.
	StateFailureTTL = time.Minute
)

type stateStore struct {
	kv  KeyValue
	now func() time.Time
}

// NewStateStore returns a [StateStore] on top of kv.
func NewStateStore(kv KeyValue) StateStore {
	return &stateStore{kv: kv, now: time.Now}
}

func stateKey(state string) string {
	return statePrefix + state
}

func (s *stateStore) Store(ctx context.Context, state, nonce string, userID int64, redirectURI string) error {
	record := models.HandshakeState{
		Nonce:       nonce,
		UserID:      userID,
		RedirectURI: redirectURI,
		CreatedAt:   s.now().UTC(),
	}
	return s.write(ctx, state, record, StateTTL)
}

func (s *stateStore) Fetch(ctx context.Context, state string) (models.HandshakeState, error) {
	raw, err := s.kv.Get(ctx, stateKey(state))
	if err != nil {
		return models.HandshakeState{}, err
	}

	var record models.HandshakeState
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "*stateStore.Fetch").Msg("dropping unreadable handshake state")
		_ = s.kv.Del(ctx, stateKey(state))
		return models.HandshakeState{}, ErrNotFound
	}
	return record, nil
}

func (s *stateStore) Consume(ctx context.Context, state, nonce string) (models.HandshakeState, error) {
	log := logger.FromContext(ctx)

	record, err := s.Fetch(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.HandshakeState{}, ErrInvalidState
		}
		return models.HandshakeState{}, err
	}

	if subtle.ConstantTimeCompare([]byte(record.Nonce), []byte(nonce)) != 1 {
		if err := s.kv.Expire(ctx, stateKey(state), StateFailureTTL); err != nil && !errors.Is(err, ErrNotFound) {
			log.Err(err).Str("func", "*stateStore.Consume").Msg("failed to shorten handshake state ttl")
		}
		return models.HandshakeState{}, ErrInvalidState
	}

	if err := s.kv.Del(ctx, stateKey(state)); err != nil {
		return models.HandshakeState{}, fmt.Errorf("consume state: %w", err)
	}
	return record, nil
}

func (s *stateStore) MarkForceLogin(ctx context.Context, state string) error {
	record, err := s.Fetch(ctx, state)
	if err != nil {
		return err
	}

	ttl, err := s.kv.TTL(ctx, stateKey(state))
	if err != nil || ttl <= 0 {
		ttl = StateTTL
	}

	record.ForceLoginPerformed = true
	return s.write(ctx, state, record, ttl)
}

func (s *stateStore) Release(ctx context.Context, state string) error {
	return s.kv.Del(ctx, stateKey(state))
}

func (s *stateStore) write(ctx context.Context, state string, record models.HandshakeState, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode handshake state: %w", err)
	}
	return s.kv.Set(ctx, stateKey(state), string(raw), ttl)
}
