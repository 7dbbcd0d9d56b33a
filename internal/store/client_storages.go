// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// ClientStorages groups all client-side storage repositories into a single
// value that can be passed around the service layer.
type ClientStorages struct {
	DB *DB

	// CredentialStore holds the encrypted refresh credentials.
	CredentialStore CredentialStore
	// ActiveAccountStore holds the active account marker.
	ActiveAccountStore ActiveAccountStore
	// AccountCache holds per-account caches dropped on every switch.
	AccountCache AccountCache
}

// NewClientStorages initialises the client storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Constructs and returns a [ClientStorages] value wired to the local
//     stores.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return newClientStorages(db, logger), nil
}

func newClientStorages(db *DB, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		DB:                 db,
		CredentialStore:    NewLocalCredentialStore(db, logger),
		ActiveAccountStore: NewLocalActiveAccountStore(db),
		AccountCache:       NewLocalAccountCache(db),
	}
}

func (s *ClientStorages) Close() error {
	return s.DB.Close()
}
