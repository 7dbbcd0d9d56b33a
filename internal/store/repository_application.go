// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
)

type applicationRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewApplicationRepository(db *DB, logger *logger.Logger) ApplicationRepository {
	logger.Debug().Msg("creating application repository")
	return &applicationRepository{db: db, logger: logger}
}

func (r *applicationRepository) FindByUID(ctx context.Context, uid string) (models.Application, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindApplicationByUIDQuery(uid)
	if err != nil {
		return models.Application{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var app models.Application
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&app.ID,
		&app.Name,
		&app.UID,
		&app.Secret,
		&app.RedirectURI,
		&app.Scopes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Application{}, ErrNotFound
		}
		log.Err(err).Str("func", "*applicationRepository.FindByUID").Msg("error finding application")
		return models.Application{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return app, nil
}
