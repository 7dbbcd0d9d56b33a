// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"github.com/MKhiriev/go-multi-account/models"
)

type accountsLoadedMsg struct {
	accounts []models.AccountEntry
	activeID string
	err      error
}

type switchDoneMsg struct {
	accountID string
	err       error
}

type accountAddedMsg struct {
	entry models.AccountEntry
	err   error
}

type accountRemovedMsg struct {
	accountID string
	err       error
}

type clearStatusMsg struct{}
