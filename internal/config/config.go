// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// Default values applied after every other source has been merged.
const (
	DefaultScopes            = "read write follow push"
	DefaultRolloutPercentage = 100
	DefaultSessionTokenTTL   = 24 * time.Hour
	DefaultSessionDuration   = 7 * 24 * time.Hour
	DefaultRefreshRateLimit  = 10
	DefaultRefreshRateWindow = 5 * time.Minute
	DefaultConsumeRateLimit  = 5
	DefaultConsumeRateBurst  = 10
	DefaultRequestTimeout    = 30 * time.Second
	DefaultKVBackend         = KVBackendMemory
	DefaultSweepInterval     = time.Minute
	DefaultCallbackPort      = 3000
)

// Supported ephemeral key-value backends.
const (
	KVBackendMemory = "memory"
	KVBackendValkey = "valkey"
)

// StructuredConfig is the top-level configuration container shared by the
// server and the client binaries. It is populated by merging environment
// variables, command-line flags, an optional JSON file and defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds sign-in session and throttling settings.
	App App `envPrefix:"APP_"`

	// MultiAccount holds the OAuth client used by the account switcher.
	MultiAccount MultiAccount `envPrefix:"MA_MULTI_ACCOUNT_"`

	// Rollout holds the refresh flow exposure gate.
	Rollout Rollout `envPrefix:"MA_"`

	// Storage holds configuration for the relational database and the
	// ephemeral key-value store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP and
	// gRPC servers.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the client's view of the server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Vault holds the client's encrypted credential store settings.
	Vault Vault `envPrefix:"VAULT_"`

	// Workers holds configuration for background jobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// SessionSignKey signs the web sign-in cookie.
	// Env: APP_SESSION_SIGN_KEY
	SessionSignKey string `env:"SESSION_SIGN_KEY"`

	// SessionIssuer is the "iss" claim of the web sign-in cookie.
	// Env: APP_SESSION_ISSUER
	SessionIssuer string `env:"SESSION_ISSUER"`

	// SessionDuration specifies how long a web sign-in stays valid.
	// Env: APP_SESSION_DURATION
	SessionDuration time.Duration `env:"SESSION_DURATION"`

	// RefreshRateLimit is the number of refresh attempts allowed per user
	// within RefreshRateWindow.
	// Env: APP_REFRESH_RATE_LIMIT
	RefreshRateLimit int `env:"REFRESH_RATE_LIMIT"`

	// RefreshRateWindow is the refresh rate limit window.
	// Env: APP_REFRESH_RATE_WINDOW
	RefreshRateWindow time.Duration `env:"REFRESH_RATE_WINDOW"`

	// ConsumeRateLimit is the per-IP request rate (per second) of the
	// unauthenticated endpoints.
	// Env: APP_CONSUME_RATE_LIMIT
	ConsumeRateLimit float64 `env:"CONSUME_RATE_LIMIT"`

	// ConsumeRateBurst is the burst size for ConsumeRateLimit.
	// Env: APP_CONSUME_RATE_BURST
	ConsumeRateBurst int `env:"CONSUME_RATE_BURST"`

	// LogFile is where the client writes its log.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// MultiAccount describes the OAuth application dedicated to account
// switching.
type MultiAccount struct {
	// Env: MA_MULTI_ACCOUNT_CLIENT_ID
	ClientID string `env:"CLIENT_ID"`

	// Env: MA_MULTI_ACCOUNT_CLIENT_SECRET
	ClientSecret string `env:"CLIENT_SECRET"`

	// RedirectURI is required.
	// Env: MA_MULTI_ACCOUNT_REDIRECT_URI
	RedirectURI string `env:"REDIRECT_URI"`

	// Env: MA_MULTI_ACCOUNT_RETAIN_TOKENS
	RetainTokens bool `env:"RETAIN_TOKENS"`

	// RefreshFlow enables long-lived refresh credentials.
	// Env: MA_MULTI_ACCOUNT_REFRESH_FLOW
	RefreshFlow bool `env:"REFRESH_FLOW"`

	// Scopes requested by the add-account handshake.
	// Env: MA_MULTI_ACCOUNT_SCOPES
	Scopes string `env:"SCOPES"`

	// AuthorizeURL overrides <Server.BaseURL>/oauth/authorize.
	// Env: MA_MULTI_ACCOUNT_AUTHORIZE_URL
	AuthorizeURL string `env:"AUTHORIZE_URL"`

	// TokenURL overrides <Server.BaseURL>/oauth/token.
	// Env: MA_MULTI_ACCOUNT_TOKEN_URL
	TokenURL string `env:"TOKEN_URL"`

	// SessionTokenTTL is the lifetime of session tokens minted by refresh.
	// Env: MA_MULTI_ACCOUNT_SESSION_TOKEN_TTL
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL"`
}

// Rollout controls which users may use the refresh flow.
type Rollout struct {
	// InternalUserIDs always pass the gate.
	// Env: MA_INTERNAL_USER_IDS (comma separated)
	InternalUserIDs []int64 `env:"INTERNAL_USER_IDS" envSeparator:","`

	// Percentage of users that pass the gate, 0..100. Nil means the default.
	// Env: MA_ROLLOUT_PERCENTAGE
	Percentage *int `env:"ROLLOUT_PERCENTAGE"`
}

// RolloutPercentage returns the configured percentage or the default.
func (r Rollout) RolloutPercentage() int {
	if r.Percentage == nil {
		return DefaultRolloutPercentage
	}
	return *r.Percentage
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// KV holds the ephemeral key-value store settings.
	KV KV `envPrefix:"KV_"`
}

// DB holds connection settings for the relational database backend.
type DB struct {
	// DSN is the PostgreSQL connection string on the server and the SQLite
	// file DSN on the client.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// KV selects and configures the ephemeral key-value backend.
type KV struct {
	// Backend is "memory" or "valkey".
	// Env: STORAGE_KV_BACKEND
	Backend string `env:"BACKEND"`

	// Env: STORAGE_KV_ADDRESS
	Address string `env:"ADDRESS"`

	// Env: STORAGE_KV_PASSWORD
	Password string `env:"PASSWORD"`

	// Env: STORAGE_KV_DB
	DB int `env:"DB"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the TCP address of the gRPC health server.
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// BaseURL is the public root of the server, used to build authorize URLs.
	// Env: SERVER_BASE_URL
	BaseURL string `env:"BASE_URL"`
}

// Adapter holds the client's outbound settings.
type Adapter struct {
	// HTTPAddress is the server root URL or host:port.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the default timeout for outbound client requests.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// CallbackPort is the loopback port receiving the OAuth redirect.
	// Env: ADAPTER_CALLBACK_PORT
	CallbackPort int `env:"CALLBACK_PORT"`

	// StrictOrigin rejects handshake messages from unexpected origins.
	// Env: ADAPTER_STRICT_ORIGIN
	StrictOrigin bool `env:"STRICT_ORIGIN"`

	// ForwardTelemetry sends switch outcomes to the server.
	// Env: ADAPTER_FORWARD_TELEMETRY
	ForwardTelemetry bool `env:"FORWARD_TELEMETRY"`
}

// Vault holds the client's credential vault settings.
type Vault struct {
	// Dir holds the key store file.
	// Env: VAULT_DIR
	Dir string `env:"DIR"`

	// Passphrase wraps the vault key at rest.
	// Env: VAULT_PASSPHRASE
	Passphrase string `env:"PASSPHRASE"`
}

// Workers holds configuration for background jobs.
type Workers struct {
	// SweepInterval is how often the in-memory key-value store evicts
	// expired keys.
	// Env: WORKERS_SWEEP_INTERVAL
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the server
// configuration. Sources are merged with mergo without override, so for every
// field the first non-zero value wins in this order:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Defaults
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}
