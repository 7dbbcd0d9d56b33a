// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/instrumentation"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
)

// Services groups every server-side service used by the transport layer.
type Services struct {
	AppInfoService     AppInfoService
	RolloutGate        RolloutGate
	OwnerResolver      OwnerResolver
	TelemetryService   TelemetryService
	HandshakeService   HandshakeService
	ConsumeService     ConsumeService
	RefreshService     RefreshService
	RefreshTokenIssuer RefreshTokenIssuer
	SessionService     SessionService
	TokenAuthenticator TokenAuthenticator
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, metrics *instrumentation.Metrics, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, err
	}

	oauth := adapter.NewOAuthClient(cfg.MultiAccount, cfg.Server.BaseURL, cfg.Server.RequestTimeout)
	gate := NewRolloutGate(cfg.MultiAccount, cfg.Rollout)
	owners := NewOwnerResolver(storages.OwnerRepository, logger)
	eventLog := NewMultiAccountLogger()
	telemetry := NewTelemetryService(storages.MetricsStore, metrics, eventLog)

	return &Services{
		AppInfoService:   appInfo,
		RolloutGate:      gate,
		OwnerResolver:    owners,
		TelemetryService: telemetry,
		HandshakeService: NewHandshakeService(storages.StateStore, storages.OwnerRepository, oauth, cfg.MultiAccount.RedirectURI),
		ConsumeService: NewConsumeService(
			storages.StateStore,
			storages.ApplicationRepository,
			storages.GrantRepository,
			storages.TokenRepository,
			owners,
			oauth,
			metrics,
			cfg.MultiAccount.ClientID,
			cfg.MultiAccount.RefreshFlow,
		),
		RefreshService: NewRefreshService(
			storages.TokenRepository,
			owners,
			storages.RefreshRateLimiter,
			gate,
			telemetry,
			eventLog,
			cfg.MultiAccount.SessionTokenTTL,
		),
		RefreshTokenIssuer: NewRefreshTokenIssuer(storages.ApplicationRepository, storages.TokenRepository, owners, cfg.MultiAccount.ClientID),
		SessionService:     NewSessionService(cfg.App),
		TokenAuthenticator: NewTokenAuthenticator(storages.TokenRepository),
	}, nil
}
