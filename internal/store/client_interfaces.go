// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-multi-account/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// ActiveAccountKey is the settings key of the active account marker.
const ActiveAccountKey = "MA_ACTIVE_ACCOUNT_ID"

// CredentialStore is the local table of encrypted refresh credentials, one
// record per account id.
type CredentialStore interface {
	Save(ctx context.Context, accountID string, record models.VaultRecord) error
	// Load returns nil when the record is missing or unreadable.
	Load(ctx context.Context, accountID string) (*models.VaultRecord, error)
	// Remove never fails; errors are logged.
	Remove(ctx context.Context, accountID string)
	// LoadAll skips unreadable records.
	LoadAll(ctx context.Context) (map[string]models.VaultRecord, error)
}

// ActiveAccountStore holds the single active account id.
type ActiveAccountStore interface {
	Set(ctx context.Context, accountID string) error
	// Get returns "" when no account is active.
	Get(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
	ClearIfMatches(ctx context.Context, accountID string) error
}

// AccountCache holds per-account response caches. Clearing it never touches
// the vault tables.
type AccountCache interface {
	Put(ctx context.Context, accountID, key, value string) error
	Get(ctx context.Context, accountID, key string) (string, error)
	Clear(ctx context.Context) error
}
