// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

type localCredentialStore struct {
	*DB
	logger *logger.Logger
}

func NewLocalCredentialStore(db *DB, logger *logger.Logger) CredentialStore {
	return &localCredentialStore{DB: db, logger: logger}
}

func (l *localCredentialStore) Save(ctx context.Context, accountID string, record models.VaultRecord) error {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode vault record: %w", err)
	}

	if _, err := l.DB.ExecContext(ctx, saveVaultRecord, accountID, string(body)); err != nil {
		log.Err(err).
			Str("func", "localCredentialStore.Save").
			Str("account_id", accountID).
			Msg("failed to upsert vault record")
		return fmt.Errorf("failed to save vault record (account_id=%s): %w", accountID, err)
	}

	return nil
}

func (l *localCredentialStore) Load(ctx context.Context, accountID string) (*models.VaultRecord, error) {
	log := logger.FromContext(ctx)

	var body string
	err := l.DB.QueryRowContext(ctx, getVaultRecord, accountID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Err(err).
			Str("func", "localCredentialStore.Load").
			Str("account_id", accountID).
			Msg("failed to query vault record")
		return nil, fmt.Errorf("failed to load vault record: %w", err)
	}

	record, ok := decodeVaultRecord(body)
	if !ok {
		log.Warn().
			Str("func", "localCredentialStore.Load").
			Str("account_id", accountID).
			Msg("unreadable vault record")
		return nil, nil
	}
	return &record, nil
}

func (l *localCredentialStore) Remove(ctx context.Context, accountID string) {
	if _, err := l.DB.ExecContext(ctx, deleteVaultRecord, accountID); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localCredentialStore.Remove").
			Str("account_id", accountID).
			Msg("failed to delete vault record")
	}
}

func (l *localCredentialStore) LoadAll(ctx context.Context) (map[string]models.VaultRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, getAllVaultRecords)
	if err != nil {
		log.Err(err).Str("func", "localCredentialStore.LoadAll").Msg("failed to query vault records")
		return nil, fmt.Errorf("failed to load vault records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.VaultRecord)
	for rows.Next() {
		var accountID, body string
		if err := rows.Scan(&accountID, &body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		record, ok := decodeVaultRecord(body)
		if !ok {
			log.Warn().Str("func", "localCredentialStore.LoadAll").Str("account_id", accountID).Msg("skipping unreadable vault record")
			continue
		}
		records[accountID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func decodeVaultRecord(body string) (models.VaultRecord, bool) {
	var record models.VaultRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return models.VaultRecord{}, false
	}
	return record, true
}
