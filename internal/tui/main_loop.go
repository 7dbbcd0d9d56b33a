// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTimeout = 3 * time.Second

const listHotKeys = "enter: switch │ a: add │ d: remove │ c: copy handle │ r: register current │ i: about │ ↑/↓: nav."

type mainLoopModel struct {
	ctx       context.Context
	switcher  service.SwitchService
	buildInfo models.AppBuildInfo
	copyText  func(string) error

	accounts []models.AccountEntry
	activeID string
	idx      int

	loading   bool
	busy      string
	spinner   spinner.Model
	status    string
	errMsg    string
	confirm   *models.AccountEntry
	showAbout bool
}

func newMainLoopModel(ctx context.Context, switcher service.SwitchService, info models.AppBuildInfo) mainLoopModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return mainLoopModel{
		ctx:       ctx,
		switcher:  switcher,
		buildInfo: info,
		copyText:  clipboard.WriteAll,
		loading:   true,
		spinner:   s,
	}
}

func (m mainLoopModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.cmdHydrate())
}

func (m mainLoopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case clearStatusMsg:
		m.status = ""
		return m, nil
	case accountsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
		}
		m.setAccounts(msg.accounts, msg.activeID)
		return m, nil
	case switchDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.errMsg = switchErrorMessage(msg.err)
			return m, m.cmdRefresh()
		}
		return m.withStatus("Switched to "+m.labelOf(msg.accountID), m.cmdRefresh())
	case accountAddedMsg:
		m.busy = ""
		if msg.err != nil {
			m.errMsg = switchErrorMessage(msg.err)
			return m, nil
		}
		return m.withStatus("Added "+handle(msg.entry), m.cmdRefresh())
	case accountRemovedMsg:
		m.busy = ""
		if msg.err != nil {
			m.errMsg = humanizeError(msg.err)
			return m, nil
		}
		return m.withStatus("Account removed", m.cmdRefresh())
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.errMsg != "" {
		if key.Matches(keyMsg, keys.enter, keys.esc) {
			m.errMsg = ""
		}
		return m, nil
	}

	if m.confirm != nil {
		switch {
		case key.Matches(keyMsg, keys.yes):
			entry := *m.confirm
			m.confirm = nil
			m.busy = "Removing " + handle(entry)
			return m, m.cmdRemove(entry.ID)
		case key.Matches(keyMsg, keys.no):
			m.confirm = nil
		}
		return m, nil
	}

	if m.showAbout {
		if key.Matches(keyMsg, keys.esc, keys.quit) {
			m.showAbout = false
		}
		return m, nil
	}

	if key.Matches(keyMsg, keys.quit) {
		return m, tea.Quit
	}

	// one operation at a time
	if m.busy != "" || m.loading {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.up):
		if m.idx > 0 {
			m.idx--
		}
	case key.Matches(keyMsg, keys.down):
		if m.idx < len(m.accounts)-1 {
			m.idx++
		}
	case key.Matches(keyMsg, keys.enter):
		entry, ok := m.current()
		if !ok {
			return m.withStatus("No accounts", nil)
		}
		if entry.ID == m.activeID {
			return m.withStatus(handle(entry)+" is already active", nil)
		}
		m.busy = "Switching to " + handle(entry)
		return m, m.cmdSwitch(entry.ID)
	case key.Matches(keyMsg, keys.add):
		m.busy = "Waiting for authorization in the browser"
		return m, m.cmdAdd()
	case key.Matches(keyMsg, keys.register):
		m.busy = "Registering the current session"
		return m, m.cmdRegisterCurrent()
	case key.Matches(keyMsg, keys.remove):
		entry, ok := m.current()
		if !ok {
			return m.withStatus("No accounts", nil)
		}
		m.confirm = &entry
	case key.Matches(keyMsg, keys.copy):
		entry, ok := m.current()
		if !ok {
			return m.withStatus("Nothing to copy", nil)
		}
		if err := m.copyText(handle(entry)); err != nil {
			m.errMsg = fmt.Sprintf("Copy failed: %v", err)
			return m, nil
		}
		return m.withStatus("Copied "+handle(entry), nil)
	case key.Matches(keyMsg, keys.info):
		m.showAbout = true
	}

	return m, nil
}

func (m mainLoopModel) View() string {
	if m.showAbout {
		return renderBuildInfoWindow(m.buildInfo)
	}

	var b strings.Builder

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading accounts...")
	default:
		b.WriteString(renderAccountList(m.accounts, m.idx, m.activeID))
	}

	if m.busy != "" {
		b.WriteString("\n\n" + m.spinner.View() + " " + m.busy + "...")
	}
	if m.status != "" {
		b.WriteString("\n\nStatus: " + m.status)
	}
	if m.confirm != nil {
		b.WriteString("\n\n" + confirmModel{message: handle(*m.confirm)}.View())
	}
	if m.errMsg != "" {
		b.WriteString("\n\n" + errorOverlayModel{message: m.errMsg}.View())
	}

	return renderPage("ACCOUNTS", b.String(), listHotKeys)
}

func (m *mainLoopModel) setAccounts(accounts []models.AccountEntry, activeID string) {
	m.accounts = accounts
	m.activeID = activeID
	if m.idx >= len(m.accounts) {
		m.idx = len(m.accounts) - 1
	}
	if m.idx < 0 {
		m.idx = 0
	}
}

func (m mainLoopModel) withStatus(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.status = status
	expire := tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
	if cmd == nil {
		return m, expire
	}
	return m, tea.Batch(cmd, expire)
}

func (m mainLoopModel) current() (models.AccountEntry, bool) {
	if len(m.accounts) == 0 || m.idx < 0 || m.idx >= len(m.accounts) {
		return models.AccountEntry{}, false
	}
	return m.accounts[m.idx], true
}

func (m mainLoopModel) labelOf(accountID string) string {
	for _, entry := range m.accounts {
		if entry.ID == accountID {
			return handle(entry)
		}
	}
	return "#" + accountID
}

func (m mainLoopModel) cmdHydrate() tea.Cmd {
	return func() tea.Msg {
		err := m.switcher.Hydrate(m.ctx)
		return accountsLoadedMsg{
			accounts: m.switcher.Accounts(),
			activeID: m.switcher.ActiveAccountID(),
			err:      err,
		}
	}
}

// cmdRefresh reads the in-memory account list without hydrating again.
func (m mainLoopModel) cmdRefresh() tea.Cmd {
	return func() tea.Msg {
		return accountsLoadedMsg{
			accounts: m.switcher.Accounts(),
			activeID: m.switcher.ActiveAccountID(),
		}
	}
}

func (m mainLoopModel) cmdSwitch(accountID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.switcher.Switch(m.ctx, accountID)
		return switchDoneMsg{accountID: accountID, err: err}
	}
}

func (m mainLoopModel) cmdAdd() tea.Cmd {
	return func() tea.Msg {
		entry, err := m.switcher.AddAccount(m.ctx, true)
		return accountAddedMsg{entry: entry, err: err}
	}
}

func (m mainLoopModel) cmdRegisterCurrent() tea.Cmd {
	return func() tea.Msg {
		entry, err := m.switcher.EnsureCurrentRegistered(m.ctx)
		return accountAddedMsg{entry: entry, err: err}
	}
}

func (m mainLoopModel) cmdRemove(accountID string) tea.Cmd {
	return func() tea.Msg {
		return accountRemovedMsg{accountID: accountID, err: m.switcher.Remove(m.ctx, accountID)}
	}
}

// switchErrorMessage keeps the user-facing text of known client failures
// and hides transport details of the rest.
func switchErrorMessage(err error) string {
	for _, known := range []error{
		service.ErrAccountNotKnown,
		service.ErrStoredTokenMissing,
		service.ErrStoredTokenUndecryptable,
		service.ErrStoredTokenInvalid,
		service.ErrSessionNotIssued,
		service.ErrSwitchInProgress,
		service.ErrRefreshRateLimited,
		service.ErrNoActiveSession,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return humanizeError(err)
}
