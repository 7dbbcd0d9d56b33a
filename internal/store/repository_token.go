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
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
)

// tokenRepository is the PostgreSQL-backed implementation of
// [TokenRepository] over the oauth_access_tokens table.
type tokenRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewTokenRepository(db *DB, logger *logger.Logger) TokenRepository {
	logger.Debug().Msg("creating token repository")
	return &tokenRepository{db: db, logger: logger}
}

func (r *tokenRepository) FindByToken(ctx context.Context, token string) (models.AccessToken, error) {
	return r.find(ctx, "*tokenRepository.FindByToken", sq.Eq{"token": token})
}

func (r *tokenRepository) FindByID(ctx context.Context, id int64) (models.AccessToken, error) {
	return r.find(ctx, "*tokenRepository.FindByID", sq.Eq{"id": id})
}

func (r *tokenRepository) find(ctx context.Context, fn string, where sq.Eq) (models.AccessToken, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindTokenQuery(where)
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	token, err := scanToken(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AccessToken{}, ErrNotFound
		}
		log.Err(err).Str("func", fn).Msg("error finding access token")
		return models.AccessToken{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return token, nil
}

// Create inserts token and returns it with its database id.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrTokenNotSaved].
//   - Any other driver-level error → wrapped [ErrExecutingStatement].
func (r *tokenRepository) Create(ctx context.Context, token models.AccessToken) (models.AccessToken, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCreateTokenQuery(token)
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.db.withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&token.ID)
	})
	if err != nil {
		log.Err(err).Str("func", "*tokenRepository.Create").Msg("error creating access token")
		switch {
		case errors.Is(err, sql.ErrNoRows), postgresError(err) == pgerrcode.UniqueViolation:
			return models.AccessToken{}, ErrTokenNotSaved
		default:
			return models.AccessToken{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return token, nil
}

func (r *tokenRepository) MarkMultiAccount(ctx context.Context, token models.AccessToken) error {
	query, args, err := buildMarkMultiAccountQuery(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.exec(ctx, "*tokenRepository.MarkMultiAccount", query, args, true)
}

// Revoke sets revoked_at once. Revoking a revoked token is a no-op.
func (r *tokenRepository) Revoke(ctx context.Context, id int64, at time.Time) error {
	query, args, err := buildRevokeTokenQuery(id, at)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.exec(ctx, "*tokenRepository.Revoke", query, args, false)
}

func (r *tokenRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time, ip string) error {
	query, args, err := buildTouchLastUsedQuery(id, at, ip)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.exec(ctx, "*tokenRepository.TouchLastUsed", query, args, true)
}

func (r *tokenRepository) exec(ctx context.Context, fn, query string, args []any, mustAffect bool) error {
	log := logger.FromContext(ctx)

	var result sql.Result
	err := r.db.withRetry(ctx, func() error {
		var execErr error
		result, execErr = r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error executing statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if !mustAffect {
		return nil
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanToken(row *sql.Row) (models.AccessToken, error) {
	var (
		token      models.AccessToken
		expiresIn  sql.NullInt64
		revokedAt  sql.NullTime
		lastUsedAt sql.NullTime
		lastUsedIP sql.NullString
		purpose    sql.NullString
	)

	err := row.Scan(
		&token.ID,
		&token.Token,
		&token.ResourceOwnerID,
		&token.ApplicationID,
		&token.Scopes,
		&expiresIn,
		&token.CreatedAt,
		&revokedAt,
		&lastUsedAt,
		&lastUsedIP,
		&token.MultiAccount,
		&purpose,
		&token.LongLived,
	)
	if err != nil {
		return models.AccessToken{}, err
	}

	if expiresIn.Valid {
		d := time.Duration(expiresIn.Int64) * time.Second
		token.ExpiresIn = &d
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if lastUsedIP.Valid {
		token.LastUsedIP = &lastUsedIP.String
	}
	if purpose.Valid {
		token.Purpose = &purpose.String
	}

	return token, nil
}
