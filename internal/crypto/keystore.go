// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// KeyName is the only key the store ever holds.
const KeyName = "master"

const keyFileName = "vault.key"

// fileKeyStore keeps the vault key in <dir>/vault.key, wrapped with a
// key-encryption key derived from a passphrase via Argon2id.
type fileKeyStore struct {
	dir        string
	passphrase string

	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// KeyStoreOption tunes a file key store.
type KeyStoreOption func(*fileKeyStore)

// WithArgon2Params overrides the Argon2id cost parameters.
func WithArgon2Params(time, memoryKiB uint32, threads uint8) KeyStoreOption {
	return func(s *fileKeyStore) {
		s.argonTime = time
		s.argonMemory = memoryKiB
		s.argonThreads = threads
	}
}

// NewFileKeyStore constructs a [KeyStore] rooted at dir with the Argon2id
// parameters recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewFileKeyStore(dir, passphrase string, opts ...KeyStoreOption) KeyStore {
	s := &fileKeyStore{
		dir:          dir,
		passphrase:   passphrase,
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type keyFile struct {
	Name       string `json:"name"`
	Salt       string `json:"salt"`
	WrappedKey string `json:"wrapped_key"`
}

func (s *fileKeyStore) path() string {
	return filepath.Join(s.dir, keyFileName)
}

// Load implements [KeyStore].
func (s *fileKeyStore) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, ErrKeyNotFound
		case errors.Is(err, fs.ErrPermission):
			return nil, newVaultError(CodeStorageAccessDenied, err)
		default:
			return nil, newVaultError(CodeKeyStorageFailed, err)
		}
	}

	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, newVaultError(CodeKeyStorageFailed, fmt.Errorf("decode key file: %w", err))
	}
	if kf.Name != KeyName {
		return nil, ErrKeyNotFound
	}

	salt, err := base64.StdEncoding.DecodeString(kf.Salt)
	if err != nil {
		return nil, newVaultError(CodeKeyStorageFailed, fmt.Errorf("decode salt: %w", err))
	}
	wrapped, err := base64.StdEncoding.DecodeString(kf.WrappedKey)
	if err != nil {
		return nil, newVaultError(CodeKeyStorageFailed, fmt.Errorf("decode wrapped key: %w", err))
	}

	key, err := unwrapKey(wrapped, s.deriveKEK(salt))
	if err != nil {
		return nil, newVaultError(CodeKeyStorageFailed, err)
	}

	return key, nil
}

// Save implements [KeyStore]. The file is replaced atomically.
func (s *fileKeyStore) Save(ctx context.Context, key []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return classifyWriteError(err)
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return newVaultError(CodeKeyGenerationFailed, err)
	}

	wrapped, err := wrapKey(key, s.deriveKEK(salt))
	if err != nil {
		return newVaultError(CodeKeyStorageFailed, err)
	}

	raw, err := json.Marshal(keyFile{
		Name:       KeyName,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		WrappedKey: base64.StdEncoding.EncodeToString(wrapped),
	})
	if err != nil {
		return newVaultError(CodeKeyStorageFailed, err)
	}

	tmp, err := os.CreateTemp(s.dir, keyFileName+".*")
	if err != nil {
		return classifyWriteError(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return classifyWriteError(err)
	}
	if err := tmp.Close(); err != nil {
		return classifyWriteError(err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return classifyWriteError(err)
	}

	return nil
}

// Delete implements [KeyStore].
func (s *fileKeyStore) Delete(ctx context.Context) error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classifyWriteError(err)
	}
	return nil
}

func (s *fileKeyStore) deriveKEK(salt []byte) []byte {
	return argon2.IDKey(
		[]byte(s.passphrase),
		salt,
		s.argonTime,
		s.argonMemory,
		s.argonThreads,
		s.argonKeyLen,
	)
}

func classifyWriteError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return newVaultError(CodeStorageAccessDenied, err)
	}
	return newVaultError(CodeKeyStorageFailed, err)
}

// wrapKey seals key with kek. blob = nonce ‖ ciphertext.
func wrapKey(key, kek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return append(nonce, gcm.Seal(nil, nonce, key, nil)...), nil
}

// unwrapKey reverses wrapKey. A wrong passphrase fails authentication.
func unwrapKey(blob, kek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("wrapped key too short")
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	key, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", err)
	}

	return key, nil
}
