// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"

	"github.com/MKhiriev/go-multi-account/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/vault_crypto_mock.go -package=mock

// KeyStore persists the single vault key. It is kept apart from the
// credential store so losing one never corrupts the other.
type KeyStore interface {
	// Load returns the stored key or ErrKeyNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored key.
	Save(ctx context.Context, key []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context) error
}

// Vault encrypts refresh credentials with one process-wide AES-256-GCM key.
//
// Scheme:
//
//	key        = EnsureKey()                       (lazy, at most one)
//	iv         = 12 random bytes per call
//	cipherText = AES-GCM(key, iv, plaintext)
//	payload    = {hex(iv), hex(cipherText)}
type Vault interface {
	// EnsureKey returns the current key, generating and persisting one when
	// the key store is empty.
	EnsureKey(ctx context.Context) ([]byte, error)

	// Encrypt seals plaintext under the vault key with a fresh IV.
	Encrypt(ctx context.Context, plaintext string) (models.EncryptedPayload, error)

	// Decrypt opens a payload. A changed key or corrupt data yields
	// ErrDecryptFailed.
	Decrypt(ctx context.Context, payload models.EncryptedPayload) (string, error)

	// ResetKey drops the current key. Every payload encrypted before the
	// reset becomes undecryptable.
	ResetKey(ctx context.Context) error
}
