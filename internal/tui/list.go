// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-multi-account/models"
)

const lastUsedLayout = "2006-01-02 15:04"

// handle renders the account as @acct, falling back to its id.
func handle(entry models.AccountEntry) string {
	if entry.Acct == "" {
		return "#" + entry.ID
	}
	return "@" + strings.TrimPrefix(entry.Acct, "@")
}

func lastUsed(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(lastUsedLayout)
}

func renderAccountList(accounts []models.AccountEntry, idx int, activeID string) string {
	if len(accounts) == 0 {
		return "No accounts on this device. Press a to add one."
	}

	var b strings.Builder
	b.WriteString("    Account                    │ Name                 │ Last used\n")
	b.WriteString("  ──────────────────────────────┼──────────────────────┼─────────────────\n")
	for i, entry := range accounts {
		cursor := " "
		if i == idx {
			cursor = ">"
		}
		marker := " "
		if entry.ID == activeID {
			marker = "*"
		}

		line := fmt.Sprintf("%s %s %-26s │ %-20s │ %s",
			cursor,
			marker,
			fitText(handle(entry), 26),
			fitText(valueOrDash(entry.DisplayName), 20),
			valueOrDash(lastUsed(entry.LastUsedAt)),
		)
		if entry.ID == activeID {
			line = activeStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
