// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type localActiveAccountStore struct {
	*DB
}

func NewLocalActiveAccountStore(db *DB) ActiveAccountStore {
	return &localActiveAccountStore{DB: db}
}

func (l *localActiveAccountStore) Set(ctx context.Context, accountID string) error {
	if _, err := l.DB.ExecContext(ctx, setSetting, ActiveAccountKey, accountID); err != nil {
		return fmt.Errorf("set active account: %w", err)
	}
	return nil
}

func (l *localActiveAccountStore) Get(ctx context.Context) (string, error) {
	var accountID string
	err := l.DB.QueryRowContext(ctx, getSetting, ActiveAccountKey).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get active account: %w", err)
	}
	return accountID, nil
}

func (l *localActiveAccountStore) Clear(ctx context.Context) error {
	if _, err := l.DB.ExecContext(ctx, deleteSetting, ActiveAccountKey); err != nil {
		return fmt.Errorf("clear active account: %w", err)
	}
	return nil
}

func (l *localActiveAccountStore) ClearIfMatches(ctx context.Context, accountID string) error {
	if _, err := l.DB.ExecContext(ctx, deleteSettingIfMatches, ActiveAccountKey, accountID); err != nil {
		return fmt.Errorf("clear active account: %w", err)
	}
	return nil
}
