// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MKhiriev/go-multi-account/models"
)

const (
	keySize = 32 // AES-256
	ivSize  = 12 // 96-bit GCM nonce
)

// aesVault is the private implementation of [Vault]. The key is cached in
// memory after the first EnsureKey.
type aesVault struct {
	store  KeyStore
	random io.Reader

	mu  sync.Mutex
	key []byte
}

// NewVault returns a [Vault] backed by store.
func NewVault(store KeyStore) Vault {
	return &aesVault{store: store, random: rand.Reader}
}

// EnsureKey implements [Vault].
func (v *aesVault) EnsureKey(ctx context.Context) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.ensureKeyLocked(ctx)
}

func (v *aesVault) ensureKeyLocked(ctx context.Context) ([]byte, error) {
	if v.key != nil {
		return v.key, nil
	}

	key, err := v.store.Load(ctx)
	if err == nil {
		if len(key) != keySize {
			return nil, newVaultError(CodeUnsupported, fmt.Errorf("stored key has %d bytes", len(key)))
		}
		v.key = key
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	key = make([]byte, keySize)
	if _, err := io.ReadFull(v.random, key); err != nil {
		return nil, newVaultError(CodeKeyGenerationFailed, err)
	}

	if err := v.store.Save(ctx, key); err != nil {
		var vaultErr *VaultError
		if errors.As(err, &vaultErr) {
			return nil, err
		}
		return nil, newVaultError(CodeKeyStorageFailed, err)
	}

	v.key = key
	return key, nil
}

func (v *aesVault) gcm(ctx context.Context) (cipher.AEAD, error) {
	key, err := v.EnsureKey(ctx)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newVaultError(CodeUnsupported, err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, newVaultError(CodeUnsupported, err)
	}

	return gcm, nil
}

// Encrypt implements [Vault].
func (v *aesVault) Encrypt(ctx context.Context, plaintext string) (models.EncryptedPayload, error) {
	gcm, err := v.gcm(ctx)
	if err != nil {
		return models.EncryptedPayload{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(v.random, iv); err != nil {
		return models.EncryptedPayload{}, newVaultError(CodeEncryptFailed, err)
	}

	cipherText := gcm.Seal(nil, iv, []byte(plaintext), nil)

	return models.EncryptedPayload{
		IV:         hex.EncodeToString(iv),
		CipherText: hex.EncodeToString(cipherText),
	}, nil
}

// Decrypt implements [Vault].
func (v *aesVault) Decrypt(ctx context.Context, payload models.EncryptedPayload) (string, error) {
	gcm, err := v.gcm(ctx)
	if err != nil {
		return "", err
	}

	iv, err := hex.DecodeString(payload.IV)
	if err != nil || len(iv) != ivSize {
		return "", newVaultError(CodeDecryptFailed, fmt.Errorf("invalid iv"))
	}
	cipherText, err := hex.DecodeString(payload.CipherText)
	if err != nil {
		return "", newVaultError(CodeDecryptFailed, fmt.Errorf("invalid cipher text: %w", err))
	}

	plaintext, err := gcm.Open(nil, iv, cipherText, nil)
	if err != nil {
		return "", newVaultError(CodeDecryptFailed, err)
	}

	return string(plaintext), nil
}

// ResetKey implements [Vault].
func (v *aesVault) ResetKey(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.key = nil
	return v.store.Delete(ctx)
}
