// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSwitcher is an in-memory service.SwitchService.
type fakeSwitcher struct {
	accounts []models.AccountEntry
	activeID string

	hydrateErr error
	switchErr  error
	addEntry   models.AccountEntry
	addErr     error
	removeErr  error

	switched   []string
	removed    []string
	forceLogin []bool
}

func (f *fakeSwitcher) Hydrate(context.Context) error { return f.hydrateErr }

func (f *fakeSwitcher) Accounts() []models.AccountEntry { return f.accounts }

func (f *fakeSwitcher) ActiveAccountID() string { return f.activeID }

func (f *fakeSwitcher) Stage(string) service.SwitchStage { return service.StageIdle }

func (f *fakeSwitcher) Register(_ context.Context, entry models.AccountEntry, _ string) (models.AccountEntry, error) {
	f.accounts = append(f.accounts, entry)
	return entry, nil
}

func (f *fakeSwitcher) Remove(_ context.Context, accountID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, accountID)
	kept := f.accounts[:0]
	for _, entry := range f.accounts {
		if entry.ID != accountID {
			kept = append(kept, entry)
		}
	}
	f.accounts = kept
	return nil
}

func (f *fakeSwitcher) Switch(_ context.Context, accountID string) (string, error) {
	f.switched = append(f.switched, accountID)
	if f.switchErr != nil {
		return "", f.switchErr
	}
	f.activeID = accountID
	return "session-" + accountID, nil
}

func (f *fakeSwitcher) AddAccount(_ context.Context, forceLogin bool) (models.AccountEntry, error) {
	f.forceLogin = append(f.forceLogin, forceLogin)
	if f.addErr != nil {
		return models.AccountEntry{}, f.addErr
	}
	f.accounts = append(f.accounts, f.addEntry)
	return f.addEntry, nil
}

func (f *fakeSwitcher) EnsureCurrentRegistered(context.Context) (models.AccountEntry, error) {
	return models.AccountEntry{}, service.ErrNoActiveSession
}

func twoAccounts() *fakeSwitcher {
	return &fakeSwitcher{
		accounts: []models.AccountEntry{
			{ID: "1", Acct: "alice", DisplayName: "Alice"},
			{ID: "2", Acct: "bob@remote.example", DisplayName: "Bob"},
		},
		activeID: "1",
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// loaded returns a model that already processed the initial hydrate.
func loaded(t *testing.T, f *fakeSwitcher) mainLoopModel {
	t.Helper()
	m := newMainLoopModel(context.Background(), f, models.NewAppBuildInfo("1.0.0", "", ""))
	next, _ := m.Update(m.cmdHydrate()())
	return next.(mainLoopModel)
}

// press feeds k to m without running the returned command.
func press(t *testing.T, m mainLoopModel, k tea.KeyMsg) (mainLoopModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(mainLoopModel), cmd
}

func deliver(t *testing.T, m mainLoopModel, msg tea.Msg) mainLoopModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(mainLoopModel)
}

func TestMainLoop_HydrateListsAccounts(t *testing.T) {
	m := loaded(t, twoAccounts())

	assert.False(t, m.loading)
	assert.Len(t, m.accounts, 2)
	assert.Equal(t, "1", m.activeID)

	view := m.View()
	assert.Contains(t, view, "@alice")
	assert.Contains(t, view, "@bob@remote.example")
}

func TestMainLoop_HydrateErrorShown(t *testing.T) {
	f := twoAccounts()
	f.hydrateErr = errors.New("dial tcp 127.0.0.1:8080: connection refused")

	m := loaded(t, f)

	assert.Equal(t, "Network unavailable or server unreachable", m.errMsg)
	assert.Len(t, m.accounts, 2, "known accounts are still listed")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.errMsg)
}

func TestMainLoop_KeysIgnoredWhileLoading(t *testing.T) {
	m := newMainLoopModel(context.Background(), twoAccounts(), models.AppBuildInfo{})

	m, cmd := press(t, m, runeKey('a'))
	assert.Nil(t, cmd)
	assert.Empty(t, m.busy)
}

func TestMainLoop_Navigation(t *testing.T) {
	m := loaded(t, twoAccounts())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.idx)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.idx)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.idx, "cursor stays on the last row")

	m, _ = press(t, m, runeKey('k'))
	assert.Equal(t, 0, m.idx)
}

func TestMainLoop_SwitchSelected(t *testing.T) {
	f := twoAccounts()
	m := loaded(t, f)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.busy, "@bob@remote.example")

	m = deliver(t, m, cmd())
	assert.Equal(t, []string{"2"}, f.switched)
	assert.Empty(t, m.busy)
	assert.Equal(t, "Switched to @bob@remote.example", m.status)

	m = deliver(t, m, m.cmdRefresh()())
	assert.Equal(t, "2", m.activeID)
}

func TestMainLoop_SwitchActiveIsNoop(t *testing.T) {
	f := twoAccounts()
	m := loaded(t, f)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, f.switched)
	assert.Equal(t, "@alice is already active", m.status)
}

func TestMainLoop_SwitchErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "known error keeps message", err: fmt.Errorf("refresh: %w", service.ErrStoredTokenInvalid), want: service.ErrStoredTokenInvalid.Error()},
		{name: "rate limited", err: service.ErrRefreshRateLimited, want: service.ErrRefreshRateLimited.Error()},
		{name: "network error", err: errors.New("Post \"http://x\": i/o timeout"), want: "Network unavailable or server unreachable"},
		{name: "other error", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := twoAccounts()
			f.switchErr = tt.err
			m := loaded(t, f)

			m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
			_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			m = deliver(t, m, cmd())

			assert.Equal(t, tt.want, m.errMsg)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestMainLoop_AddAccount(t *testing.T) {
	f := twoAccounts()
	f.addEntry = models.AccountEntry{ID: "3", Acct: "carol"}
	m := loaded(t, f)

	m, cmd := press(t, m, runeKey('a'))
	require.NotNil(t, cmd)
	assert.NotEmpty(t, m.busy)

	m = deliver(t, m, cmd())
	assert.Equal(t, []bool{true}, f.forceLogin, "adding always forces a fresh login")
	assert.Equal(t, "Added @carol", m.status)

	m = deliver(t, m, m.cmdRefresh()())
	assert.Len(t, m.accounts, 3)
}

func TestMainLoop_AddAccountFailure(t *testing.T) {
	f := twoAccounts()
	f.addErr = errors.New("OAuth popup was closed before authorization completed")
	m := loaded(t, f)

	_, cmd := press(t, m, runeKey('a'))
	m = deliver(t, m, cmd())

	assert.Equal(t, "OAuth popup was closed before authorization completed", m.errMsg)
	assert.Empty(t, m.busy)
}

func TestMainLoop_RegisterCurrentWithoutSession(t *testing.T) {
	m := loaded(t, twoAccounts())

	_, cmd := press(t, m, runeKey('r'))
	m = deliver(t, m, cmd())

	assert.Equal(t, service.ErrNoActiveSession.Error(), m.errMsg)
}

func TestMainLoop_RemoveAsksForConfirmation(t *testing.T) {
	f := twoAccounts()
	m := loaded(t, f)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, runeKey('d'))
	assert.Nil(t, cmd)
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Remove \"@bob@remote.example\"")

	m, cmd = press(t, m, runeKey('y'))
	require.NotNil(t, cmd)
	assert.Nil(t, m.confirm)

	m = deliver(t, m, cmd())
	assert.Equal(t, []string{"2"}, f.removed)
	assert.Equal(t, "Account removed", m.status)

	m = deliver(t, m, m.cmdRefresh()())
	assert.Len(t, m.accounts, 1)
	assert.Equal(t, 0, m.idx, "cursor follows the shorter list")
}

func TestMainLoop_RemoveCancelled(t *testing.T) {
	f := twoAccounts()
	m := loaded(t, f)

	m, _ = press(t, m, runeKey('d'))
	m, cmd := press(t, m, runeKey('n'))

	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Empty(t, f.removed)
}

func TestMainLoop_CopyHandle(t *testing.T) {
	m := loaded(t, twoAccounts())
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, _ = press(t, m, runeKey('c'))

	assert.Equal(t, "@alice", copied)
	assert.Equal(t, "Copied @alice", m.status)
}

func TestMainLoop_CopyFailure(t *testing.T) {
	m := loaded(t, twoAccounts())
	m.copyText = func(string) error { return errors.New("no clipboard utility") }

	m, _ = press(t, m, runeKey('c'))

	assert.Equal(t, "Copy failed: no clipboard utility", m.errMsg)
}

func TestMainLoop_EmptyList(t *testing.T) {
	m := loaded(t, &fakeSwitcher{})

	assert.Contains(t, m.View(), "No accounts on this device")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "No accounts", m.status)

	m, _ = press(t, m, runeKey('c'))
	assert.Equal(t, "Nothing to copy", m.status)
}

func TestMainLoop_AboutWindow(t *testing.T) {
	m := loaded(t, twoAccounts())

	m, _ = press(t, m, runeKey('i'))
	assert.True(t, m.showAbout)
	assert.Contains(t, m.View(), "Version: 1.0.0")
	assert.Contains(t, m.View(), "Commit: N/A")

	m, cmd := press(t, m, runeKey('q'))
	assert.False(t, m.showAbout)
	assert.Nil(t, cmd, "q closes the window instead of quitting")
}

func TestMainLoop_Quit(t *testing.T) {
	m := loaded(t, twoAccounts())

	_, cmd := press(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMainLoop_StatusExpires(t *testing.T) {
	m := loaded(t, twoAccounts())
	m.status = "Copied"

	m = deliver(t, m, clearStatusMsg{})
	assert.Empty(t, m.status)
}

func TestHandle(t *testing.T) {
	assert.Equal(t, "@alice", handle(models.AccountEntry{ID: "1", Acct: "@alice"}))
	assert.Equal(t, "#9", handle(models.AccountEntry{ID: "9"}))
}

func TestFitText(t *testing.T) {
	assert.Equal(t, "short", fitText("short", 10))
	assert.Equal(t, "abcdefg...", fitText("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", fitText("abcdef", 2))
	assert.Equal(t, "привет...", fitText("приветствую всех", 9))
}

func TestLastUsed(t *testing.T) {
	assert.Empty(t, lastUsed(nil))

	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-03-01 12:30", lastUsed(&at))
}

func TestNew_RequiresSwitchService(t *testing.T) {
	_, err := New(&service.ClientServices{}, models.AppBuildInfo{}, logger.Nop())
	assert.ErrorIs(t, err, errNoSwitchService)

	ui, err := New(&service.ClientServices{SwitchService: twoAccounts()}, models.AppBuildInfo{}, logger.Nop())
	require.NoError(t, err)
	assert.NotNil(t, ui)
}
