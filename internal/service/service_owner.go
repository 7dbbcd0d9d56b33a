// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
)

type ownerResolver struct {
	owners store.OwnerRepository
	logger *logger.Logger
}

func NewOwnerResolver(owners store.OwnerRepository, logger *logger.Logger) OwnerResolver {
	return &ownerResolver{owners: owners, logger: logger}
}

// Resolve loads the user first and then its account. A user row without an
// account id falls back to the accounts joined by user.
func (r *ownerResolver) Resolve(ctx context.Context, resourceOwnerID int64) (models.ResourceOwner, error) {
	log := logger.FromContext(ctx)

	user, err := r.owners.FindUser(ctx, resourceOwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ResourceOwner{}, ErrResourceOwnerNotFound
		}
		log.Err(err).Int64("resource_owner_id", resourceOwnerID).Msg("error finding resource owner")
		return models.ResourceOwner{}, fmt.Errorf("error finding resource owner: %w", err)
	}

	var account models.Account
	if user.AccountID != 0 {
		account, err = r.owners.FindAccount(ctx, user.AccountID)
	} else {
		account, err = r.owners.FindAccountByUser(ctx, user.UserID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ResourceOwner{}, ErrAccountNotFound
		}
		log.Err(err).Int64("user_id", user.UserID).Msg("error finding account of resource owner")
		return models.ResourceOwner{}, fmt.Errorf("error finding account: %w", err)
	}

	return models.ResourceOwner{User: user, Account: account}, nil
}

func (r *ownerResolver) Account(ctx context.Context, accountID int64) (models.Account, error) {
	account, err := r.owners.FindAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, fmt.Errorf("error finding account: %w", err)
	}
	return account, nil
}
