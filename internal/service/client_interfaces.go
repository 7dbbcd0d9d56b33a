// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/handshake"
	"github.com/MKhiriev/go-multi-account/models"
)

// VaultService stores refresh credentials encrypted, one record per account.
type VaultService interface {
	// Save encrypts refreshToken and upserts it together with entry. The
	// stored entry is returned with VaultRef and LastUsedAt set.
	Save(ctx context.Context, entry models.AccountEntry, refreshToken string) (models.AccountEntry, error)

	// UpdateEntry rewrites the metadata of an existing record, keeping its
	// credential.
	UpdateEntry(ctx context.Context, entry models.AccountEntry) error

	// Credential loads and decrypts the refresh credential of accountID.
	// A decrypt failure is retried once after a key reset; a second failure
	// removes the record and returns ErrStoredTokenUndecryptable.
	Credential(ctx context.Context, accountID string) (string, error)

	// Entry returns the stored metadata of accountID, upgrading a legacy
	// record when needed. Missing records yield (nil, nil).
	Entry(ctx context.Context, accountID string) (*models.AccountEntry, error)

	// ListAll returns every entry with metadata. Legacy records are upgraded
	// once; records whose upgrade fails are left out and retried next time.
	ListAll(ctx context.Context) (map[string]models.AccountEntry, error)

	Remove(ctx context.Context, accountID string)
}

// SwitchStage is the step of the account switch state machine.
type SwitchStage string

const (
	StageIdle              SwitchStage = "IDLE"
	StageLoadingCredential SwitchStage = "LOADING_CREDENTIAL"
	StageExchanging        SwitchStage = "EXCHANGING"
	StageVerifying         SwitchStage = "VERIFYING"
	StageApplying          SwitchStage = "APPLYING"
	StageDone              SwitchStage = "DONE"
	StageFailed            SwitchStage = "FAILED"
)

// SwitchService is the client-side account switch orchestrator.
type SwitchService interface {
	// Hydrate loads the known accounts and picks the active one.
	Hydrate(ctx context.Context) error

	// Accounts returns the known accounts, most recently used first.
	Accounts() []models.AccountEntry

	// ActiveAccountID returns "" when no account is active.
	ActiveAccountID() string

	// Stage returns the stage of the last switch of accountID.
	Stage(accountID string) SwitchStage

	// Register stores refreshToken for entry and adds it to the known
	// accounts.
	Register(ctx context.Context, entry models.AccountEntry, refreshToken string) (models.AccountEntry, error)

	// Remove forgets accountID and clears the active session when it was
	// active.
	Remove(ctx context.Context, accountID string) error

	// Switch makes accountID the active account. It returns the new session
	// credential.
	Switch(ctx context.Context, accountID string) (string, error)

	// AddAccount runs the add-account handshake and registers the result.
	AddAccount(ctx context.Context, forceLogin bool) (models.AccountEntry, error)

	// EnsureCurrentRegistered stores a refresh credential for the account
	// of the current session if it is not known yet.
	EnsureCurrentRegistered(ctx context.Context) (models.AccountEntry, error)
}

// Handshaker runs one authorization window handshake.
type Handshaker interface {
	Open(ctx context.Context, authorizeURL, state string, existing handshake.Window) (handshake.Result, error)
}

// SwitchLogger records client switch events.
type SwitchLogger interface {
	SwitchAttempt(ctx context.Context, accountID string) time.Time
	SwitchSuccess(ctx context.Context, accountID string, startedAt time.Time, reloadCount *int)
	SwitchFailure(ctx context.Context, accountID, reason string, stage SwitchStage, startedAt time.Time)
	Reload(ctx context.Context, count int)
	CacheClear(ctx context.Context, success bool, reason string)
	CSRFRefresh(ctx context.Context, stage string, success bool, reason string)
}

// ReloadManager rebinds the application to the active account after a
// switch, at most MaxReloadAttempts times in a row.
type ReloadManager interface {
	// Reload triggers a reload towards target. It reports false when the
	// attempt budget was exhausted and the reload was skipped.
	Reload(ctx context.Context, target string) bool
	// Finalize is called once a reload completed.
	Finalize()
	// Count returns the current attempt counter.
	Count() int
}
