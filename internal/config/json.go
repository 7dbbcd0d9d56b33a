// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] for the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		SessionSignKey    string   `json:"session_sign_key"`
		SessionIssuer     string   `json:"session_issuer"`
		SessionDuration   Duration `json:"session_duration"`
		RefreshRateLimit  int      `json:"refresh_rate_limit"`
		RefreshRateWindow Duration `json:"refresh_rate_window"`
		ConsumeRateLimit  float64  `json:"consume_rate_limit"`
		ConsumeRateBurst  int      `json:"consume_rate_burst"`
		LogFile           string   `json:"log_file"`
		Version           string   `json:"version"`
	} `json:"app,omitempty"`

	MultiAccount struct {
		ClientID        string   `json:"client_id"`
		ClientSecret    string   `json:"client_secret"`
		RedirectURI     string   `json:"redirect_uri"`
		RetainTokens    bool     `json:"retain_tokens"`
		RefreshFlow     bool     `json:"refresh_flow"`
		Scopes          string   `json:"scopes"`
		AuthorizeURL    string   `json:"authorize_url"`
		TokenURL        string   `json:"token_url"`
		SessionTokenTTL Duration `json:"session_token_ttl"`
	} `json:"multi_account,omitempty"`

	Rollout struct {
		InternalUserIDs []int64 `json:"internal_user_ids"`
		Percentage      *int    `json:"percentage"`
	} `json:"rollout,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		KV struct {
			Backend  string `json:"backend"`
			Address  string `json:"address"`
			Password string `json:"password"`
			DB       int    `json:"db"`
		} `json:"kv,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
		BaseURL        string   `json:"base_url"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress      string   `json:"http_address"`
		RequestTimeout   Duration `json:"request_timeout"`
		CallbackPort     int      `json:"callback_port"`
		StrictOrigin     bool     `json:"strict_origin"`
		ForwardTelemetry bool     `json:"forward_telemetry"`
	} `json:"adapter,omitempty"`

	Vault struct {
		Dir        string `json:"dir"`
		Passphrase string `json:"passphrase"`
	} `json:"vault,omitempty"`

	Workers struct {
		SweepInterval Duration `json:"sweep_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			SessionSignKey:    jsonCfg.App.SessionSignKey,
			SessionIssuer:     jsonCfg.App.SessionIssuer,
			SessionDuration:   time.Duration(jsonCfg.App.SessionDuration),
			RefreshRateLimit:  jsonCfg.App.RefreshRateLimit,
			RefreshRateWindow: time.Duration(jsonCfg.App.RefreshRateWindow),
			ConsumeRateLimit:  jsonCfg.App.ConsumeRateLimit,
			ConsumeRateBurst:  jsonCfg.App.ConsumeRateBurst,
			LogFile:           jsonCfg.App.LogFile,
			Version:           jsonCfg.App.Version,
		},
		MultiAccount: MultiAccount{
			ClientID:        jsonCfg.MultiAccount.ClientID,
			ClientSecret:    jsonCfg.MultiAccount.ClientSecret,
			RedirectURI:     jsonCfg.MultiAccount.RedirectURI,
			RetainTokens:    jsonCfg.MultiAccount.RetainTokens,
			RefreshFlow:     jsonCfg.MultiAccount.RefreshFlow,
			Scopes:          jsonCfg.MultiAccount.Scopes,
			AuthorizeURL:    jsonCfg.MultiAccount.AuthorizeURL,
			TokenURL:        jsonCfg.MultiAccount.TokenURL,
			SessionTokenTTL: time.Duration(jsonCfg.MultiAccount.SessionTokenTTL),
		},
		Rollout: Rollout{
			InternalUserIDs: jsonCfg.Rollout.InternalUserIDs,
			Percentage:      jsonCfg.Rollout.Percentage,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			KV: KV{
				Backend:  jsonCfg.Storage.KV.Backend,
				Address:  jsonCfg.Storage.KV.Address,
				Password: jsonCfg.Storage.KV.Password,
				DB:       jsonCfg.Storage.KV.DB,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			GRPCAddress:    jsonCfg.Server.GRPCAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			BaseURL:        jsonCfg.Server.BaseURL,
		},
		Adapter: Adapter{
			HTTPAddress:      jsonCfg.Adapter.HTTPAddress,
			RequestTimeout:   time.Duration(jsonCfg.Adapter.RequestTimeout),
			CallbackPort:     jsonCfg.Adapter.CallbackPort,
			StrictOrigin:     jsonCfg.Adapter.StrictOrigin,
			ForwardTelemetry: jsonCfg.Adapter.ForwardTelemetry,
		},
		Vault: Vault{
			Dir:        jsonCfg.Vault.Dir,
			Passphrase: jsonCfg.Vault.Passphrase,
		},
		Workers: Workers{
			SweepInterval: time.Duration(jsonCfg.Workers.SweepInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
