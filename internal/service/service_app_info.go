// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"strings"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
)

type appInfoService struct {
	version string
}

// NewAppInfoService fails when the configured version is blank.
func NewAppInfoService(cfg config.App, log *logger.Logger) (AppInfoService, error) {
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	log.Debug().Str("version", version).Msg("app info service created")
	return &appInfoService{version: version}, nil
}

// GetAppVersion returns the version served by GET /api/version/.
func (s *appInfoService) GetAppVersion(context.Context) string {
	return s.version
}
