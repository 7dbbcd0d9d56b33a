// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing HTTP address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or an unknown key-value backend).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidMultiAccountConfigs indicates an incomplete OAuth client
	// description.
	ErrInvalidMultiAccountConfigs = errors.New("invalid multi-account configuration")
	// ErrMissingRedirectURI is returned when MA_MULTI_ACCOUNT_REDIRECT_URI is
	// not configured.
	ErrMissingRedirectURI = errors.New("missing multi-account config: redirect_uri")
	// ErrInvalidRolloutConfigs indicates a rollout percentage outside 0..100.
	ErrInvalidRolloutConfigs = errors.New("invalid rollout configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a missing session signing key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidVaultConfigs indicates invalid client vault settings.
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
)
