// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

type grantRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewGrantRepository(db *DB, logger *logger.Logger) GrantRepository {
	logger.Debug().Msg("creating grant repository")
	return &grantRepository{db: db, logger: logger}
}

// FindByToken looks up an authorization code.
func (r *grantRepository) FindByToken(ctx context.Context, token string) (models.AccessGrant, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindGrantByTokenQuery(token)
	if err != nil {
		return models.AccessGrant{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		grant     models.AccessGrant
		expiresIn int64
		revokedAt sql.NullTime
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&grant.ID,
		&grant.ResourceOwnerID,
		&grant.ApplicationID,
		&grant.Token,
		&expiresIn,
		&grant.RedirectURI,
		&grant.Scopes,
		&grant.CreatedAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AccessGrant{}, ErrNotFound
		}
		log.Err(err).Str("func", "*grantRepository.FindByToken").Msg("error finding access grant")
		return models.AccessGrant{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	grant.ExpiresIn = time.Duration(expiresIn) * time.Second
	if revokedAt.Valid {
		grant.RevokedAt = &revokedAt.Time
	}

	return grant, nil
}
