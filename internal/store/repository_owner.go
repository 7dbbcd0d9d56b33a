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

// ownerRepository reads the users and accounts tables that back resource
// owners.
type ownerRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewOwnerRepository(db *DB, logger *logger.Logger) OwnerRepository {
	logger.Debug().Msg("creating owner repository")
	return &ownerRepository{db: db, logger: logger}
}

func (r *ownerRepository) FindUser(ctx context.Context, userID int64) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildFindUserQuery(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&user.UserID, &user.AccountID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		log.Err(err).Str("func", "*ownerRepository.FindUser").Int64("user_id", userID).Msg("error finding user")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}

func (r *ownerRepository) FindAccount(ctx context.Context, accountID int64) (models.Account, error) {
	query, args, err := buildFindAccountQuery(accountID)
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.scanAccount(ctx, "*ownerRepository.FindAccount", query, args)
}

func (r *ownerRepository) FindAccountByUser(ctx context.Context, userID int64) (models.Account, error) {
	query, args, err := buildFindAccountByUserQuery(userID)
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return r.scanAccount(ctx, "*ownerRepository.FindAccountByUser", query, args)
}

func (r *ownerRepository) scanAccount(ctx context.Context, fn, query string, args []any) (models.Account, error) {
	log := logger.FromContext(ctx)

	var account models.Account
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Domain,
		&account.DisplayName,
		&account.AvatarURL,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		log.Err(err).Str("func", fn).Msg("error finding account")
		return models.Account{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return account, nil
}
