// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package tui is the terminal account switcher: it lists the accounts
// stored on this device, marks the active one and drives switching, adding
// and removing accounts through the client services.
package tui

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/models"
	tea "github.com/charmbracelet/bubbletea"
)

var errNoSwitchService = errors.New("switch service is not configured")

type TUI struct {
	switcher  service.SwitchService
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

func New(services *service.ClientServices, info models.AppBuildInfo, logger *logger.Logger) (*TUI, error) {
	if services == nil || services.SwitchService == nil {
		return nil, errNoSwitchService
	}
	return &TUI{switcher: services.SwitchService, buildInfo: info, logger: logger}, nil
}

// Run shows the switcher until the user quits or ctx is cancelled.
func (t *TUI) Run(ctx context.Context) error {
	model := newMainLoopModel(ctx, t.switcher, t.buildInfo)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		t.logger.Info().Msg("switcher closed by context")
		return nil
	}
	return err
}
