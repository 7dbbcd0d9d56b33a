// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type localAccountCache struct {
	*DB
}

func NewLocalAccountCache(db *DB) AccountCache {
	return &localAccountCache{DB: db}
}

func (l *localAccountCache) Put(ctx context.Context, accountID, key, value string) error {
	if _, err := l.DB.ExecContext(ctx, putAccountCache, accountID, key, value); err != nil {
		return fmt.Errorf("put account cache: %w", err)
	}
	return nil
}

func (l *localAccountCache) Get(ctx context.Context, accountID, key string) (string, error) {
	var value string
	err := l.DB.QueryRowContext(ctx, getAccountCache, accountID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get account cache: %w", err)
	}
	return value, nil
}

func (l *localAccountCache) Clear(ctx context.Context) error {
	if _, err := l.DB.ExecContext(ctx, clearAccountCache); err != nil {
		return fmt.Errorf("clear account cache: %w", err)
	}
	return nil
}
