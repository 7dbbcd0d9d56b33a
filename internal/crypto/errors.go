// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import "fmt"

// ErrorCode classifies vault failures.
type ErrorCode string

const (
	CodeUnsupported         ErrorCode = "unsupported"
	CodeKeyGenerationFailed ErrorCode = "key_generation_failed"
	CodeKeyStorageFailed    ErrorCode = "key_storage_failed"
	CodeStorageAccessDenied ErrorCode = "storage_access_denied"
	CodeEncryptFailed       ErrorCode = "encrypt_failed"
	CodeDecryptFailed       ErrorCode = "decrypt_failed"
	CodeKeyNotFound         ErrorCode = "key_not_found"
)

// VaultError is returned by every vault operation. Two VaultErrors match with
// errors.Is when their codes are equal.
type VaultError struct {
	Code ErrorCode
	Err  error
}

func (e *VaultError) Error() string {
	if e.Err == nil {
		return "vault: " + string(e.Code)
	}
	return fmt.Sprintf("vault: %s: %v", e.Code, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

func (e *VaultError) Is(target error) bool {
	t, ok := target.(*VaultError)
	return ok && t.Code == e.Code
}

func newVaultError(code ErrorCode, err error) error {
	return &VaultError{Code: code, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrUnsupported         = &VaultError{Code: CodeUnsupported}
	ErrKeyGenerationFailed = &VaultError{Code: CodeKeyGenerationFailed}
	ErrKeyStorageFailed    = &VaultError{Code: CodeKeyStorageFailed}
	ErrStorageAccessDenied = &VaultError{Code: CodeStorageAccessDenied}
	ErrEncryptFailed       = &VaultError{Code: CodeEncryptFailed}
	ErrDecryptFailed       = &VaultError{Code: CodeDecryptFailed}
	ErrKeyNotFound         = &VaultError{Code: CodeKeyNotFound}
)
