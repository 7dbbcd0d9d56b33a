// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// Storages groups every server-side repository and ephemeral store.
type Storages struct {
	DB *DB
	KV KeyValue

	ApplicationRepository ApplicationRepository
	GrantRepository       GrantRepository
	TokenRepository       TokenRepository
	OwnerRepository       OwnerRepository

	StateStore         StateStore
	RefreshRateLimiter RateLimiter
	MetricsStore       MetricsStore
}

// NewStorages connects to PostgreSQL, applies migrations and opens the KV
// backend.
func NewStorages(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	kv, err := NewKeyValue(ctx, cfg.Storage.KV, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kv connection error: %w", err)
	}

	return newStorages(db, kv, cfg.App, log), nil
}

func newStorages(db *DB, kv KeyValue, app config.App, log *logger.Logger) *Storages {
	return &Storages{
		DB:                    db,
		KV:                    kv,
		ApplicationRepository: NewApplicationRepository(db, log),
		GrantRepository:       NewGrantRepository(db, log),
		TokenRepository:       NewTokenRepository(db, log),
		OwnerRepository:       NewOwnerRepository(db, log),
		StateStore:            NewStateStore(kv),
		RefreshRateLimiter:    NewRateLimiter(kv, RateLimitFamilyRefresh, app.RefreshRateLimit, app.RefreshRateWindow),
		MetricsStore:          NewMetricsStore(kv),
	}
}

// Close releases the database and KV connections.
func (s *Storages) Close() error {
	s.KV.Close()
	return s.DB.Close()
}
