// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/crypto"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
)

type vaultService struct {
	credentials store.CredentialStore
	vault       crypto.Vault

	// adapter fetches metadata for legacy records.
	adapter adapter.ServerAdapter

	now func() time.Time
}

func NewVaultService(credentials store.CredentialStore, vault crypto.Vault, serverAdapter adapter.ServerAdapter) VaultService {
	return &vaultService{
		credentials: credentials,
		vault:       vault,
		adapter:     serverAdapter,
		now:         time.Now,
	}
}

func (s *vaultService) Save(ctx context.Context, entry models.AccountEntry, refreshToken string) (models.AccountEntry, error) {
	if entry.ID == "" || refreshToken == "" {
		return models.AccountEntry{}, ErrInvalidDataProvided
	}

	payload, err := s.vault.Encrypt(ctx, refreshToken)
	if err != nil {
		return models.AccountEntry{}, fmt.Errorf("error encrypting refresh token: %w", err)
	}

	now := s.now()
	entry.VaultRef = entry.ID
	entry.LastUsedAt = &now

	if err = s.credentials.Save(ctx, entry.ID, models.FullRecord(payload, entry)); err != nil {
		return models.AccountEntry{}, fmt.Errorf("error saving refresh token: %w", err)
	}

	return entry, nil
}

func (s *vaultService) UpdateEntry(ctx context.Context, entry models.AccountEntry) error {
	record, err := s.credentials.Load(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("error loading vault record: %w", err)
	}
	if record == nil {
		return ErrStoredTokenMissing
	}

	if entry.VaultRef == "" {
		entry.VaultRef = entry.ID
	}
	return s.credentials.Save(ctx, entry.ID, models.FullRecord(record.Payload, entry))
}

func (s *vaultService) Credential(ctx context.Context, accountID string) (string, error) {
	log := logger.FromContext(ctx)

	record, err := s.credentials.Load(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("error loading vault record: %w", err)
	}
	if record == nil || record.Payload.IsZero() {
		return "", ErrStoredTokenMissing
	}

	token, err := s.vault.Decrypt(ctx, record.Payload)
	if err == nil {
		return token, nil
	}

	log.Warn().Err(err).Str("account_id", accountID).Msg("failed to decrypt refresh token, attempting key reset")

	if resetErr := s.vault.ResetKey(ctx); resetErr != nil {
		log.Err(resetErr).Msg("vault key reset failed")
	} else if token, err = s.vault.Decrypt(ctx, record.Payload); err == nil {
		return token, nil
	}

	log.Err(err).Str("account_id", accountID).Msg("retry decrypt after key reset failed")
	s.credentials.Remove(ctx, accountID)

	return "", fmt.Errorf("%w: %w", ErrStoredTokenUndecryptable, err)
}

func (s *vaultService) Entry(ctx context.Context, accountID string) (*models.AccountEntry, error) {
	record, err := s.credentials.Load(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error loading vault record: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	upgraded, ok := s.upgrade(ctx, accountID, *record)
	if !ok {
		return nil, nil
	}
	return upgraded.Entry, nil
}

func (s *vaultService) ListAll(ctx context.Context) (map[string]models.AccountEntry, error) {
	records, err := s.credentials.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading vault records: %w", err)
	}

	entries := make(map[string]models.AccountEntry, len(records))
	for accountID, record := range records {
		upgraded, ok := s.upgrade(ctx, accountID, record)
		if !ok {
			continue
		}
		entries[accountID] = *upgraded.Entry
	}

	return entries, nil
}

// upgrade attaches server metadata to a legacy record and rewrites it. It
// is a no-op for full records.
func (s *vaultService) upgrade(ctx context.Context, accountID string, record models.VaultRecord) (models.VaultRecord, bool) {
	if !record.NeedsUpgrade() {
		return record, true
	}

	log := logger.FromContext(ctx)

	view, err := s.adapter.FetchAccount(ctx, accountID)
	if err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("failed to fetch metadata for legacy vault record")
		return models.VaultRecord{}, false
	}

	entry := models.MergeAccountEntry(view, &models.AccountEntry{ID: accountID, VaultRef: accountID}, s.now())
	entry.ID = accountID
	upgraded := record.Upgrade(entry)

	if err = s.credentials.Save(ctx, accountID, upgraded); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("failed to rewrite upgraded vault record")
	}

	return upgraded, true
}

func (s *vaultService) Remove(ctx context.Context, accountID string) {
	s.credentials.Remove(ctx, accountID)
}
