// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application settings.
type ClientApp struct {
	// LogFile is the path of the client log file.
	LogFile string
	// Version is shown in the switcher footer.
	Version string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the server root used by the client.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
	// CallbackPort is the loopback port that receives the OAuth redirect.
	CallbackPort int
	// StrictOrigin rejects handshake messages from unexpected origins.
	StrictOrigin bool
	// ForwardTelemetry sends switch outcomes to the server.
	ForwardTelemetry bool
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite connection string used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientVault holds the key store settings.
type ClientVault struct {
	// Dir is the directory of the vault key store.
	Dir string
	// Passphrase wraps the vault key at rest.
	Passphrase string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Vault contains the key store settings.
	Vault ClientVault
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration. Server-only rules are not applied.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := newClientConfig(cfg)

	return clientCfg, clientCfg.validate()
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			LogFile: cfg.App.LogFile,
			Version: cfg.App.Version,
		},
		Adapter: ClientAdapter{
			HTTPAddress:      cfg.Adapter.HTTPAddress,
			RequestTimeout:   cfg.Adapter.RequestTimeout,
			CallbackPort:     cfg.Adapter.CallbackPort,
			StrictOrigin:     cfg.Adapter.StrictOrigin,
			ForwardTelemetry: cfg.Adapter.ForwardTelemetry,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Vault: ClientVault{
			Dir:        cfg.Vault.Dir,
			Passphrase: cfg.Vault.Passphrase,
		},
	}
}
