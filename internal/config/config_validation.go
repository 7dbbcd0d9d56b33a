// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks that the merged server configuration is usable.
func (cfg *StructuredConfig) validate() error {
	if strings.TrimSpace(cfg.MultiAccount.RedirectURI) == "" {
		return ErrMissingRedirectURI
	}

	if cfg.MultiAccount.ClientID == "" {
		return fmt.Errorf("%w: client_id is empty", ErrInvalidMultiAccountConfigs)
	}

	if cfg.Server.BaseURL == "" && (cfg.MultiAccount.AuthorizeURL == "" || cfg.MultiAccount.TokenURL == "") {
		return fmt.Errorf("%w: base url or authorize and token urls are required", ErrInvalidMultiAccountConfigs)
	}

	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: database dsn is empty", ErrInvalidStorageConfigs)
	}

	switch cfg.Storage.KV.Backend {
	case KVBackendMemory:
	case KVBackendValkey:
		if cfg.Storage.KV.Address == "" {
			return fmt.Errorf("%w: valkey address is empty", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown kv backend %q", ErrInvalidStorageConfigs, cfg.Storage.KV.Backend)
	}

	if p := cfg.Rollout.RolloutPercentage(); p < 0 || p > 100 {
		return fmt.Errorf("%w: percentage %d", ErrInvalidRolloutConfigs, p)
	}

	if cfg.App.SessionSignKey == "" {
		return fmt.Errorf("%w: session sign key is empty", ErrInvalidAppConfigs)
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Adapter.CallbackPort < 0 || cfg.Adapter.CallbackPort > 65535 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Vault.Dir == "" {
		return ErrInvalidVaultConfigs
	}

	return nil
}
