// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/handshake"
	"github.com/MKhiriev/go-multi-account/internal/mock"
	"github.com/MKhiriev/go-multi-account/internal/session"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// memoryVault: VaultService в памяти, без шифрования.
type memoryVault struct {
	mu        sync.Mutex
	entries   map[string]models.AccountEntry
	tokens    map[string]string
	removed   []string
	updateErr error
}

func newMemoryVault() *memoryVault {
	return &memoryVault{entries: map[string]models.AccountEntry{}, tokens: map[string]string{}}
}

func (v *memoryVault) put(entry models.AccountEntry, token string) {
	v.entries[entry.ID] = entry
	v.tokens[entry.ID] = token
}

func (v *memoryVault) Save(_ context.Context, entry models.AccountEntry, refreshToken string) (models.AccountEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry.VaultRef = entry.ID
	v.put(entry, refreshToken)
	return entry, nil
}

func (v *memoryVault) UpdateEntry(_ context.Context, entry models.AccountEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.updateErr != nil {
		return v.updateErr
	}
	v.entries[entry.ID] = entry
	return nil
}

func (v *memoryVault) Credential(_ context.Context, accountID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	token, ok := v.tokens[accountID]
	if !ok {
		return "", ErrStoredTokenMissing
	}
	return token, nil
}

func (v *memoryVault) Entry(_ context.Context, accountID string) (*models.AccountEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.entries[accountID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (v *memoryVault) ListAll(context.Context) (map[string]models.AccountEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]models.AccountEntry, len(v.entries))
	for id, e := range v.entries {
		out[id] = e
	}
	return out, nil
}

func (v *memoryVault) Remove(_ context.Context, accountID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, accountID)
	delete(v.tokens, accountID)
	v.removed = append(v.removed, accountID)
}

type handshakeFunc func(ctx context.Context, authorizeURL, state string, existing handshake.Window) (handshake.Result, error)

func (f handshakeFunc) Open(ctx context.Context, authorizeURL, state string, existing handshake.Window) (handshake.Result, error) {
	return f(ctx, authorizeURL, state, existing)
}

type testSwitchDeps struct {
	vault     *memoryVault
	adapter   *mock.MockServerAdapter
	session   *session.Context
	active    *mock.MockActiveAccountStore
	cache     *mock.MockAccountCache
	handshake handshakeFunc
	reloads   []string
}

func newTestSwitchSvc(t *testing.T, ctrl *gomock.Controller) (*switchService, *testSwitchDeps) {
	t.Helper()
	deps := &testSwitchDeps{
		vault:   newMemoryVault(),
		adapter: mock.NewMockServerAdapter(ctrl),
		session: session.New(),
		active:  mock.NewMockActiveAccountStore(ctrl),
		cache:   mock.NewMockAccountCache(ctrl),
	}
	deps.handshake = func(context.Context, string, string, handshake.Window) (handshake.Result, error) {
		return handshake.Result{}, errors.New("unexpected handshake")
	}

	log := NewSwitchLogger(nil)
	reload := NewReloadManager(func(_ context.Context, target string) error {
		deps.reloads = append(deps.reloads, target)
		return nil
	}, log)

	svc := NewSwitchService(
		deps.vault,
		deps.adapter,
		deps.session,
		deps.active,
		deps.cache,
		handshakeFunc(func(ctx context.Context, u, s string, w handshake.Window) (handshake.Result, error) {
			return deps.handshake(ctx, u, s, w)
		}),
		log,
		reload,
	).(*switchService)
	svc.now = func() time.Time { return vaultNow }

	return svc, deps
}

func at(d time.Duration) *time.Time {
	t := vaultNow.Add(d)
	return &t
}

// ── Hydrate ──────────────────────────────────────────────────────────────────

func TestSwitchService_Hydrate_StoredActiveWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "1", LastUsedAt: at(-time.Hour)}, "r1")
	deps.vault.put(models.AccountEntry{ID: "2", LastUsedAt: at(-time.Minute)}, "r2")
	deps.active.EXPECT().Get(ctx).Return("1", nil)

	require.NoError(t, svc.Hydrate(ctx))
	assert.Equal(t, "1", svc.ActiveAccountID())

	accounts := svc.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, "2", accounts[0].ID, "most recent first")
}

// Устаревший маркер очищается, выбирается последний использованный аккаунт.
func TestSwitchService_Hydrate_StaleMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "1", LastUsedAt: at(-time.Hour)}, "r1")
	deps.vault.put(models.AccountEntry{ID: "2", LastUsedAt: at(-time.Minute)}, "r2")
	deps.active.EXPECT().Get(ctx).Return("gone", nil)
	deps.active.EXPECT().ClearIfMatches(ctx, "gone").Return(nil)

	require.NoError(t, svc.Hydrate(ctx))
	assert.Equal(t, "2", svc.ActiveAccountID())
}

func TestSwitchService_Hydrate_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.active.EXPECT().Get(ctx).Return("", nil)

	require.NoError(t, svc.Hydrate(ctx))
	assert.Empty(t, svc.ActiveAccountID())
	assert.Empty(t, svc.Accounts())
}

func TestSortEntries_TieBreaksByID(t *testing.T) {
	entries := map[string]models.AccountEntry{
		"b": {ID: "b", LastUsedAt: at(0)},
		"a": {ID: "a", LastUsedAt: at(0)},
		"c": {ID: "c"},
		"d": {ID: "d", LastUsedAt: at(time.Second)},
	}

	var ids []string
	for _, e := range sortEntries(entries) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

// ── Switch ───────────────────────────────────────────────────────────────────

func TestSwitchService_Switch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70", Acct: "alice", VaultRef: "70"}, "refresh-70")
	deps.session.Swap(session.Credentials{AccountID: "71", BearerToken: "old-bearer", CSRFToken: "old-csrf"})

	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").Return(models.RefreshedSession{
		TokenResponse: models.TokenResponse{Token: "session-70"},
		CSRFToken:     "new-csrf",
	}, nil)
	deps.adapter.EXPECT().VerifyCredentials(ctx).DoAndReturn(func(context.Context) (models.AccountView, error) {
		// запрос verify уже идёт с новым bearer
		assert.Equal(t, "session-70", deps.session.BearerToken())
		return models.AccountView{ID: "70", Username: "alice", Acct: "alice@example.org", DisplayName: "Alice"}, nil
	})
	deps.active.EXPECT().Set(ctx, "70").Return(nil)
	deps.cache.EXPECT().Clear(ctx).Return(nil)

	token, err := svc.Switch(ctx, "70")
	require.NoError(t, err)
	assert.Equal(t, "session-70", token)

	creds := deps.session.Load()
	assert.Equal(t, "70", creds.AccountID)
	assert.Equal(t, "session-70", creds.BearerToken)
	assert.Equal(t, "new-csrf", creds.CSRFToken)

	assert.Equal(t, "70", svc.ActiveAccountID())
	assert.Equal(t, StageDone, svc.Stage("70"))
	assert.Equal(t, []string{DefaultReloadTarget}, deps.reloads)
	assert.Equal(t, "Alice", deps.vault.entries["70"].DisplayName)
	assert.Equal(t, "alice@example.org", deps.vault.entries["70"].Acct)
}

func TestSwitchService_Switch_UnknownAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestSwitchSvc(t, ctrl)

	_, err := svc.Switch(context.Background(), "404")
	require.ErrorIs(t, err, ErrAccountNotKnown)
	assert.Equal(t, StageFailed, svc.Stage("404"))
}

func TestSwitchService_Switch_CredentialMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	deps.vault.entries["70"] = models.AccountEntry{ID: "70"}

	_, err := svc.Switch(context.Background(), "70")
	require.ErrorIs(t, err, ErrStoredTokenMissing)
}

// Сервер отклонил сохранённый refresh-токен.
func TestSwitchService_Switch_StoredTokenInvalid(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestSwitchSvc(t, ctrl)
			ctx := context.Background()

			deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
			deps.session.Swap(session.Credentials{AccountID: "71", BearerToken: "old-bearer"})

			deps.adapter.EXPECT().ClearCookies()
			deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").
				Return(models.RefreshedSession{}, &adapter.HTTPError{Status: status, Message: "rejected"})

			_, err := svc.Switch(ctx, "70")
			require.ErrorIs(t, err, ErrStoredTokenInvalid)
			assert.Equal(t, "old-bearer", deps.session.BearerToken(), "session untouched")
			assert.Equal(t, StageFailed, svc.Stage("70"))
		})
	}
}

func TestSwitchService_Switch_RateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").
		Return(models.RefreshedSession{}, &adapter.HTTPError{Status: http.StatusTooManyRequests})

	_, err := svc.Switch(ctx, "70")
	require.ErrorIs(t, err, ErrRefreshRateLimited)
}

func TestSwitchService_Switch_NoSessionIssued(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").Return(models.RefreshedSession{}, nil)

	_, err := svc.Switch(ctx, "70")
	require.ErrorIs(t, err, ErrSessionNotIssued)
}

// Verify упал: прежняя сессия восстанавливается.
func TestSwitchService_Switch_RestoreOnVerifyFailure(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantInvalid bool
	}{
		{"unauthorized", &adapter.HTTPError{Status: http.StatusUnauthorized}, true},
		{"forbidden invalid_token", &adapter.HTTPError{Status: http.StatusForbidden, Message: "invalid_token"}, true},
		{"forbidden other", &adapter.HTTPError{Status: http.StatusForbidden, Message: "suspended"}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestSwitchSvc(t, ctrl)
			ctx := context.Background()

			deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
			previous := session.Credentials{AccountID: "71", BearerToken: "old-bearer", CSRFToken: "old-csrf"}
			deps.session.Swap(previous)

			deps.adapter.EXPECT().ClearCookies()
			deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").
				Return(models.RefreshedSession{TokenResponse: models.TokenResponse{Token: "session-70"}}, nil)
			deps.adapter.EXPECT().VerifyCredentials(ctx).Return(models.AccountView{}, tt.err)

			_, err := svc.Switch(ctx, "70")
			require.Error(t, err)
			assert.Equal(t, tt.wantInvalid, errors.Is(err, ErrStoredTokenInvalid))
			assert.Equal(t, previous, deps.session.Load())
			assert.Empty(t, deps.reloads)
		})
	}
}

func TestSwitchService_Switch_RestoreOnActiveSetFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
	previous := session.Credentials{AccountID: "71", BearerToken: "old-bearer"}
	deps.session.Swap(previous)

	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").
		Return(models.RefreshedSession{TokenResponse: models.TokenResponse{Token: "session-70"}}, nil)
	deps.adapter.EXPECT().VerifyCredentials(ctx).Return(models.AccountView{ID: "70", Username: "alice"}, nil)
	deps.active.EXPECT().Set(ctx, "70").Return(errors.New("disk full"))

	_, err := svc.Switch(ctx, "70")
	require.Error(t, err)
	assert.Equal(t, previous, deps.session.Load())
	assert.NotEqual(t, "70", svc.ActiveAccountID())
}

// Кэш не очистился: переключение всё равно успешно.
func TestSwitchService_Switch_CacheClearFailureTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")
	deps.vault.updateErr = errors.New("disk full")

	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").
		Return(models.RefreshedSession{TokenResponse: models.TokenResponse{Token: "session-70"}}, nil)
	deps.adapter.EXPECT().VerifyCredentials(ctx).Return(models.AccountView{ID: "70"}, nil)
	deps.active.EXPECT().Set(ctx, "70").Return(nil)
	deps.cache.EXPECT().Clear(ctx).Return(errors.New("locked"))

	_, err := svc.Switch(ctx, "70")
	require.NoError(t, err)
}

func TestSwitchService_Switch_InProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.vault.put(models.AccountEntry{ID: "70"}, "refresh-70")

	entered := make(chan struct{})
	release := make(chan struct{})
	deps.adapter.EXPECT().ClearCookies()
	deps.adapter.EXPECT().RefreshSession(ctx, "refresh-70").DoAndReturn(
		func(context.Context, string) (models.RefreshedSession, error) {
			close(entered)
			<-release
			return models.RefreshedSession{}, &adapter.HTTPError{Status: http.StatusUnauthorized}
		})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Switch(ctx, "70")
		done <- err
	}()

	<-entered
	_, err := svc.Switch(ctx, "70")
	assert.ErrorIs(t, err, ErrSwitchInProgress)

	close(release)
	assert.ErrorIs(t, <-done, ErrStoredTokenInvalid)
}

// ── Register / Remove ────────────────────────────────────────────────────────

func TestSwitchService_RegisterAndRemove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	stored, err := svc.Register(ctx, models.AccountEntry{ID: "70", Acct: "alice"}, "refresh-70")
	require.NoError(t, err)
	assert.Equal(t, "70", stored.VaultRef)
	require.Len(t, svc.Accounts(), 1)

	svc.activeID = "70"
	deps.session.Swap(session.Credentials{AccountID: "70", BearerToken: "session-70"})
	deps.active.EXPECT().ClearIfMatches(ctx, "70").Return(nil)

	require.NoError(t, svc.Remove(ctx, "70"))
	assert.Empty(t, svc.Accounts())
	assert.Empty(t, svc.ActiveAccountID())
	assert.Empty(t, deps.session.BearerToken())
	assert.Equal(t, []string{"70"}, deps.vault.removed)
}

// ── AddAccount ───────────────────────────────────────────────────────────────

func TestSwitchService_AddAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.adapter.EXPECT().FetchEntry(ctx, true).Return(models.EntryResponse{
		AuthorizeURL: "https://example.org/oauth/authorize?state=s1",
		State:        "s1",
		Nonce:        "n1",
	}, nil)
	deps.handshake = func(_ context.Context, authorizeURL, state string, existing handshake.Window) (handshake.Result, error) {
		assert.Equal(t, "https://example.org/oauth/authorize?state=s1", authorizeURL)
		assert.Equal(t, "s1", state)
		assert.Nil(t, existing)
		return handshake.Result{State: "s1", Code: "code"}, nil
	}
	deps.adapter.EXPECT().ConsumeCode(ctx, models.HandshakePayload{State: "s1", Nonce: "n1", AuthorizationCode: "code"}).
		Return(models.ConsumeResponse{TokenResponse: models.TokenResponse{
			Token:   "refresh-72",
			Account: models.AccountView{ID: "72", Username: "carol", Acct: "carol"},
		}}, nil)

	entry, err := svc.AddAccount(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "72", entry.ID)
	assert.Equal(t, "carol", entry.Acct)
	assert.Equal(t, "refresh-72", deps.vault.tokens["72"])
}

// Handshake не завершился: state/nonce освобождаются через restore.
func TestSwitchService_AddAccount_RestoreOnFailure(t *testing.T) {
	for _, failAt := range []string{"handshake", "consume"} {
		t.Run(failAt, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestSwitchSvc(t, ctrl)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			deps.adapter.EXPECT().FetchEntry(ctx, false).
				Return(models.EntryResponse{AuthorizeURL: "https://example.org/a", State: "s1", Nonce: "n1"}, nil)

			if failAt == "handshake" {
				deps.handshake = func(context.Context, string, string, handshake.Window) (handshake.Result, error) {
					return handshake.Result{}, handshake.ErrPopupClosed
				}
			} else {
				deps.handshake = func(context.Context, string, string, handshake.Window) (handshake.Result, error) {
					return handshake.Result{State: "s1", Code: "code"}, nil
				}
				deps.adapter.EXPECT().ConsumeCode(ctx, gomock.Any()).
					Return(models.ConsumeResponse{}, &adapter.HTTPError{Status: http.StatusForbidden})
			}
			deps.adapter.EXPECT().RestoreSession(gomock.Any(), "s1", "n1").Return(nil)

			_, err := svc.AddAccount(ctx, false)
			require.Error(t, err)
			if failAt == "handshake" {
				assert.ErrorIs(t, err, handshake.ErrPopupClosed)
			}
			assert.Empty(t, svc.Accounts())
		})
	}
}

func TestSwitchService_AddAccount_EntryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.adapter.EXPECT().FetchEntry(ctx, false).Return(models.EntryResponse{}, errors.New("offline"))

	_, err := svc.AddAccount(ctx, false)
	require.Error(t, err)
}

// ── EnsureCurrentRegistered ──────────────────────────────────────────────────

func TestSwitchService_EnsureCurrentRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	deps.session.Swap(session.Credentials{BearerToken: "web-bearer"})
	deps.adapter.EXPECT().VerifyCredentials(ctx).Return(models.AccountView{ID: "70", Username: "alice"}, nil)
	deps.adapter.EXPECT().IssueRefreshToken(ctx).Return(models.TokenResponse{
		Token:   "refresh-70",
		Account: models.AccountView{ID: "70", Username: "alice"},
	}, nil)
	deps.active.EXPECT().Set(ctx, "70").Return(nil)

	entry, err := svc.EnsureCurrentRegistered(ctx)
	require.NoError(t, err)
	assert.Equal(t, "70", entry.ID)
	assert.Equal(t, "70", svc.ActiveAccountID())
	assert.Equal(t, "refresh-70", deps.vault.tokens["70"])
}

func TestSwitchService_EnsureCurrentRegistered_AlreadyKnown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestSwitchSvc(t, ctrl)
	ctx := context.Background()

	svc.accounts["70"] = models.AccountEntry{ID: "70", Acct: "alice"}
	deps.session.Swap(session.Credentials{BearerToken: "web-bearer"})
	deps.adapter.EXPECT().VerifyCredentials(ctx).Return(models.AccountView{ID: "70"}, nil)

	entry, err := svc.EnsureCurrentRegistered(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", entry.Acct)
}

func TestSwitchService_EnsureCurrentRegistered_NoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestSwitchSvc(t, ctrl)

	_, err := svc.EnsureCurrentRegistered(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
