// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/session"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
)

// switchService is the concrete implementation of [SwitchService].
//
// A switch runs through
//
//	IDLE → LOADING_CREDENTIAL → EXCHANGING → VERIFYING → APPLYING → DONE
//
// and ends in FAILED from any step. The previous session credential is put
// back whenever a step after installing the new one fails.
type switchService struct {
	vault     VaultService
	adapter   adapter.ServerAdapter
	session   *session.Context
	active    store.ActiveAccountStore
	cache     store.AccountCache
	handshake Handshaker
	log       SwitchLogger
	reload    ReloadManager

	mu       sync.Mutex
	accounts map[string]models.AccountEntry
	activeID string
	stages   map[string]SwitchStage
	inFlight map[string]struct{}

	now func() time.Time
}

func NewSwitchService(
	vault VaultService,
	serverAdapter adapter.ServerAdapter,
	sess *session.Context,
	active store.ActiveAccountStore,
	cache store.AccountCache,
	handshaker Handshaker,
	log SwitchLogger,
	reload ReloadManager,
) SwitchService {
	return &switchService{
		vault:     vault,
		adapter:   serverAdapter,
		session:   sess,
		active:    active,
		cache:     cache,
		handshake: handshaker,
		log:       log,
		reload:    reload,
		accounts:  make(map[string]models.AccountEntry),
		stages:    make(map[string]SwitchStage),
		inFlight:  make(map[string]struct{}),
		now:       time.Now,
	}
}

// Hydrate implements [SwitchService]. The stored active marker wins when it
// names a known account; otherwise the most recently used account is picked
// and a stale marker is cleared.
func (s *switchService) Hydrate(ctx context.Context) error {
	log := logger.FromContext(ctx)

	entries, err := s.vault.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("error loading accounts: %w", err)
	}

	storedActive, err := s.active.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read active account id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = entries

	switch {
	case storedActive != "" && hasAccount(entries, storedActive):
		s.activeID = storedActive
	default:
		if storedActive != "" {
			if err := s.active.ClearIfMatches(ctx, storedActive); err != nil {
				log.Warn().Err(err).Msg("failed to clear stale active account id")
			}
		}
		if s.activeID == "" || !hasAccount(entries, s.activeID) {
			s.activeID = mostRecentlyUsed(entries)
		}
	}

	return nil
}

func hasAccount(entries map[string]models.AccountEntry, id string) bool {
	_, ok := entries[id]
	return ok
}

func mostRecentlyUsed(entries map[string]models.AccountEntry) string {
	sorted := sortEntries(entries)
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0].ID
}

// sortEntries orders by LastUsedAt descending, then by id.
func sortEntries(entries map[string]models.AccountEntry) []models.AccountEntry {
	out := make([]models.AccountEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastUsedAt, out[j].LastUsedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		default:
			return out[i].ID < out[j].ID
		}
	})
	return out
}

func (s *switchService) Accounts() []models.AccountEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortEntries(s.accounts)
}

func (s *switchService) ActiveAccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *switchService) Stage(accountID string) SwitchStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stage, ok := s.stages[accountID]; ok {
		return stage
	}
	return StageIdle
}

func (s *switchService) setStage(accountID string, stage SwitchStage) {
	s.mu.Lock()
	s.stages[accountID] = stage
	s.mu.Unlock()
}

func (s *switchService) Register(ctx context.Context, entry models.AccountEntry, refreshToken string) (models.AccountEntry, error) {
	stored, err := s.vault.Save(ctx, entry, refreshToken)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("account_id", entry.ID).Msg("failed to register account")
		return models.AccountEntry{}, err
	}

	s.mu.Lock()
	s.accounts[stored.ID] = stored
	s.mu.Unlock()

	return stored, nil
}

func (s *switchService) Remove(ctx context.Context, accountID string) error {
	s.vault.Remove(ctx, accountID)

	s.mu.Lock()
	wasActive := s.activeID == accountID
	delete(s.accounts, accountID)
	delete(s.stages, accountID)
	if wasActive {
		s.activeID = ""
	}
	s.mu.Unlock()

	if wasActive {
		s.session.Clear()
	}

	if err := s.active.ClearIfMatches(ctx, accountID); err != nil {
		return fmt.Errorf("error clearing active account: %w", err)
	}
	return nil
}

// Switch implements [SwitchService]. Concurrent switches to the same account
// are rejected with ErrSwitchInProgress.
func (s *switchService) Switch(ctx context.Context, accountID string) (token string, err error) {
	s.mu.Lock()
	if _, busy := s.inFlight[accountID]; busy {
		s.mu.Unlock()
		return "", ErrSwitchInProgress
	}
	s.inFlight[accountID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, accountID)
		s.mu.Unlock()
	}()

	startedAt := s.log.SwitchAttempt(ctx, accountID)
	stage := StageLoadingCredential

	defer func() {
		if err != nil {
			s.setStage(accountID, StageFailed)
			s.log.SwitchFailure(ctx, accountID, err.Error(), stage, startedAt)
		}
	}()

	s.setStage(accountID, stage)

	entry, err := s.knownEntry(ctx, accountID)
	if err != nil {
		return "", err
	}

	refreshToken, err := s.vault.Credential(ctx, accountID)
	if err != nil {
		return "", err
	}

	s.clearCookies(ctx)

	stage = StageExchanging
	s.setStage(accountID, stage)

	refreshed, err := s.adapter.RefreshSession(ctx, refreshToken)
	if err != nil {
		return "", classifyRefreshError(err)
	}
	if refreshed.Token == "" {
		return "", ErrSessionNotIssued
	}

	previous := s.session.Swap(session.Credentials{
		AccountID:   accountID,
		BearerToken: refreshed.Token,
		CSRFToken:   s.session.CSRFToken(),
	})
	if refreshed.CSRFToken != "" {
		s.session.RotateCSRF(refreshed.CSRFToken)
		s.log.CSRFRefresh(ctx, string(StageExchanging), true, "")
	}

	stage = StageVerifying
	s.setStage(accountID, stage)

	verified, err := s.adapter.VerifyCredentials(ctx)
	if err != nil {
		s.session.Restore(previous)
		return "", classifyVerifyError(err)
	}

	stage = StageApplying
	s.setStage(accountID, stage)

	updated := models.MergeAccountEntry(verified, &entry, s.now())
	updated.ID = accountID
	if updated.VaultRef == "" {
		updated.VaultRef = accountID
	}
	if err := s.vault.UpdateEntry(ctx, updated); err != nil {
		logger.FromContext(ctx).Err(err).Str("account_id", accountID).Msg("failed to update stored metadata")
	}

	if err = s.active.Set(ctx, accountID); err != nil {
		s.session.Restore(previous)
		return "", fmt.Errorf("error persisting active account: %w", err)
	}

	s.mu.Lock()
	s.accounts[accountID] = updated
	s.activeID = accountID
	s.mu.Unlock()

	s.clearAccountCache(ctx)
	reloadCount := s.reload.Count() + 1
	if !s.reload.Reload(ctx, DefaultReloadTarget) {
		reloadCount = 0
	}

	stage = StageDone
	s.setStage(accountID, stage)
	s.log.SwitchSuccess(ctx, accountID, startedAt, &reloadCount)

	return refreshed.Token, nil
}

// knownEntry returns the in-memory entry of accountID, hydrating it from the
// vault when it is not loaded yet.
func (s *switchService) knownEntry(ctx context.Context, accountID string) (models.AccountEntry, error) {
	s.mu.Lock()
	entry, ok := s.accounts[accountID]
	s.mu.Unlock()
	if ok {
		return entry, nil
	}

	stored, err := s.vault.Entry(ctx, accountID)
	if err != nil {
		return models.AccountEntry{}, err
	}
	if stored == nil {
		return models.AccountEntry{}, fmt.Errorf("%w: %s", ErrAccountNotKnown, accountID)
	}

	s.mu.Lock()
	s.accounts[accountID] = *stored
	s.mu.Unlock()
	return *stored, nil
}

func (s *switchService) clearCookies(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Warn().Any("panic", r).Msg("failed to clear cookies")
		}
	}()
	s.adapter.ClearCookies()
}

func (s *switchService) clearAccountCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.log.CacheClear(ctx, false, err.Error())
		return
	}
	s.log.CacheClear(ctx, true, "")
}

// AddAccount implements [SwitchService]. A handshake that fails after the
// entry call releases its state/nonce through the restore endpoint.
func (s *switchService) AddAccount(ctx context.Context, forceLogin bool) (entry models.AccountEntry, err error) {
	log := logger.FromContext(ctx)

	authorize, err := s.adapter.FetchEntry(ctx, forceLogin)
	if err != nil {
		return models.AccountEntry{}, fmt.Errorf("error starting add-account flow: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		restoreCtx := context.WithoutCancel(ctx)
		if restoreErr := s.adapter.RestoreSession(restoreCtx, authorize.State, authorize.Nonce); restoreErr != nil {
			log.Err(restoreErr).Msg("failed to restore multi-account session after add-account failure")
		}
	}()

	callback, err := s.handshake.Open(ctx, authorize.AuthorizeURL, authorize.State, nil)
	if err != nil {
		return models.AccountEntry{}, err
	}

	consumed, err := s.adapter.ConsumeCode(ctx, models.HandshakePayload{
		State:             callback.State,
		Nonce:             authorize.Nonce,
		AuthorizationCode: callback.Code,
	})
	if err != nil {
		return models.AccountEntry{}, fmt.Errorf("error consuming authorization code: %w", err)
	}

	s.mu.Lock()
	existing, known := s.accounts[consumed.Account.ID]
	s.mu.Unlock()

	var fallback *models.AccountEntry
	if known {
		fallback = &existing
	}
	merged := models.MergeAccountEntry(consumed.Account, fallback, s.now())

	return s.Register(ctx, merged, consumed.Token)
}

// EnsureCurrentRegistered implements [SwitchService].
func (s *switchService) EnsureCurrentRegistered(ctx context.Context) (models.AccountEntry, error) {
	if s.session.BearerToken() == "" {
		return models.AccountEntry{}, ErrNoActiveSession
	}

	current, err := s.adapter.VerifyCredentials(ctx)
	if err != nil {
		return models.AccountEntry{}, classifyVerifyError(err)
	}

	s.mu.Lock()
	existing, known := s.accounts[current.ID]
	s.mu.Unlock()
	if known {
		return existing, nil
	}

	issued, err := s.adapter.IssueRefreshToken(ctx)
	if err != nil {
		return models.AccountEntry{}, fmt.Errorf("error issuing refresh token: %w", err)
	}

	registered, err := s.Register(ctx, models.MergeAccountEntry(issued.Account, nil, s.now()), issued.Token)
	if err != nil {
		return models.AccountEntry{}, err
	}

	if err := s.active.Set(ctx, registered.ID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("failed to persist active account id")
	}
	s.mu.Lock()
	s.activeID = registered.ID
	s.mu.Unlock()

	return registered, nil
}
