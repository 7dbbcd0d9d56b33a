// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
)

// App owns the client process lifecycle.
type App struct {
	ui              UI
	callback        CallbackServer
	hydrateJob      service.HydrateJob
	hydrateInterval time.Duration
	logger          *logger.Logger
}

// NewApp builds an application from already wired parts. A zero
// hydrateInterval falls back to service.DefaultHydrateInterval.
func NewApp(ui UI, callback CallbackServer, hydrateJob service.HydrateJob, hydrateInterval time.Duration, log *logger.Logger) (Client, error) {
	if ui == nil {
		return nil, ErrNoUI
	}
	if log == nil {
		log = logger.Nop()
	}

	return &App{
		ui:              ui,
		callback:        callback,
		hydrateJob:      hydrateJob,
		hydrateInterval: hydrateInterval,
		logger:          log,
	}, nil
}

// Run starts the callback server and the hydrate job, then blocks in the UI.
// Both are stopped when the UI returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(a.logger.WithContext(ctx))
	defer cancel()

	if a.callback != nil {
		if err := a.callback.Start(ctx); err != nil {
			return fmt.Errorf("start callback server: %w", err)
		}
		defer a.callback.Stop()
	}

	if a.hydrateJob != nil {
		a.hydrateJob.Start(ctx, a.hydrateInterval)
		defer a.hydrateJob.Stop()
	}

	a.logger.Info().Msg("client started")
	if err := a.ui.Run(ctx); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	a.logger.Info().Msg("client stopped")

	return nil
}

// LogReload is the reload hook of a terminal client: the account list is
// read again on the next render, so only the target is recorded.
func LogReload(ctx context.Context, target string) error {
	logger.FromContext(ctx).Info().Str("target", target).Msg("reloading after account switch")
	return nil
}
