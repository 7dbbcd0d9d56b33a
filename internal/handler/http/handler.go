// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/url"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/instrumentation"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/internal/validators"
)

// Handler is the root HTTP transport handler. Route handlers and middlewares
// are its methods.
type Handler struct {
	services *service.Services

	// metrics backs GET /metrics and the per-route request counter. May be nil.
	metrics *instrumentation.Metrics

	// cookie describes the web sign-in cookie.
	cookie cookieSettings

	// limiter throttles the unauthenticated multi-account endpoints per IP.
	limiter *ipRateLimiter

	// ids generates CSRF tokens.
	ids *utils.UUIDGenerator

	validator validators.Validator

	logger *logger.Logger
}

func NewHandler(services *service.Services, metrics *instrumentation.Metrics, cfg *config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:  services,
		metrics:   metrics,
		cookie:    newCookieSettings(cfg),
		limiter:   newIPRateLimiter(cfg.App.ConsumeRateLimit, cfg.App.ConsumeRateBurst, ipLimiterIdleTTL),
		ids:       utils.NewUUIDGenerator(),
		validator: validators.NewRequestValidator(),
		logger:    logger,
	}
}

// cookieSettings is derived once from the public base URL.
type cookieSettings struct {
	name   string
	secure bool
	maxAge time.Duration
}

func newCookieSettings(cfg *config.StructuredConfig) cookieSettings {
	settings := cookieSettings{
		name:   sessionCookieName,
		maxAge: cfg.App.SessionDuration,
	}

	if u, err := url.Parse(cfg.Server.BaseURL); err == nil && u.Scheme == "https" {
		settings.secure = true
	}

	return settings
}
