// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-multi-account/internal/mock"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testRedirectURI = "http://127.0.0.1:3000/callback"

func newTestHandshakeService(t *testing.T, ctrl *gomock.Controller) (HandshakeService, *mock.MockStateStore, *mock.MockOwnerRepository, *mock.MockOAuthClient) {
	t.Helper()
	states := mock.NewMockStateStore(ctrl)
	owners := mock.NewMockOwnerRepository(ctrl)
	oauth := mock.NewMockOAuthClient(ctrl)
	return NewHandshakeService(states, owners, oauth, testRedirectURI), states, owners, oauth
}

// ── Entry ────────────────────────────────────────────────────────────────────

func TestHandshakeService_Entry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, states, _, oauth := newTestHandshakeService(t, ctrl)
	ctx := context.Background()

	var storedState, storedNonce string
	states.EXPECT().Store(ctx, gomock.Any(), gomock.Any(), int64(7), testRedirectURI).DoAndReturn(
		func(_ context.Context, state, nonce string, _ int64, _ string) error {
			storedState, storedNonce = state, nonce
			return nil
		})
	oauth.EXPECT().AuthCodeURL(gomock.Any(), true).DoAndReturn(func(state string, _ bool) string {
		return "https://example.org/oauth/authorize?state=" + state
	})

	resp, err := svc.Entry(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, storedState, resp.State)
	assert.Equal(t, storedNonce, resp.Nonce)
	assert.NotEqual(t, resp.State, resp.Nonce)
	assert.Equal(t, "https://example.org/oauth/authorize?state="+resp.State, resp.AuthorizeURL)
}

func TestHandshakeService_Entry_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, states, _, _ := newTestHandshakeService(t, ctrl)
	ctx := context.Background()

	states.EXPECT().Store(ctx, gomock.Any(), gomock.Any(), int64(0), testRedirectURI).Return(errors.New("kv down"))

	_, err := svc.Entry(ctx, 0, false)
	require.Error(t, err)
}

// ── Callback ─────────────────────────────────────────────────────────────────

func TestHandshakeService_Callback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, states, _, _ := newTestHandshakeService(t, ctrl)
	ctx := context.Background()

	states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{Nonce: "n1", UserID: 7}, nil)
	states.EXPECT().Fetch(ctx, "gone").Return(models.HandshakeState{}, store.ErrNotFound)

	record, err := svc.Callback(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.UserID)

	_, err = svc.Callback(ctx, "gone")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Callback(ctx, "")
	assert.ErrorIs(t, err, ErrMissingParameter)
}

// ── Restore ──────────────────────────────────────────────────────────────────

func TestHandshakeService_Restore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, states, owners, _ := newTestHandshakeService(t, ctrl)
	ctx := context.Background()

	gomock.InOrder(
		states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{Nonce: "n1", UserID: 7}, nil),
		owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil),
		states.EXPECT().Release(ctx, "s1").Return(nil),
	)

	user, err := svc.Restore(ctx, "s1", "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.UserID)
}

func TestHandshakeService_Restore_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		state   string
		nonce   string
		setup   func(states *mock.MockStateStore, owners *mock.MockOwnerRepository)
		wantErr error
	}{
		{
			name:    "missing nonce",
			state:   "s1",
			setup:   func(*mock.MockStateStore, *mock.MockOwnerRepository) {},
			wantErr: ErrMissingParameter,
		},
		{
			name:  "unknown state",
			state: "s1", nonce: "n1",
			setup: func(states *mock.MockStateStore, _ *mock.MockOwnerRepository) {
				states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{}, store.ErrNotFound)
			},
			wantErr: ErrInvalidState,
		},
		{
			name:  "nonce mismatch",
			state: "s1", nonce: "other",
			setup: func(states *mock.MockStateStore, _ *mock.MockOwnerRepository) {
				states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{Nonce: "n1", UserID: 7}, nil)
			},
			wantErr: ErrInvalidState,
		},
		{
			// анонимный handshake: пользователя для восстановления нет
			name:  "anonymous handshake",
			state: "s1", nonce: "n1",
			setup: func(states *mock.MockStateStore, owners *mock.MockOwnerRepository) {
				states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{Nonce: "n1"}, nil)
				owners.EXPECT().FindUser(ctx, int64(0)).Return(models.User{}, store.ErrNotFound)
				states.EXPECT().Release(ctx, "s1").Return(nil)
			},
			wantErr: ErrUserNotFound,
		},
		{
			name:  "owner lookup failure",
			state: "s1", nonce: "n1",
			setup: func(states *mock.MockStateStore, owners *mock.MockOwnerRepository) {
				states.EXPECT().Fetch(ctx, "s1").Return(models.HandshakeState{Nonce: "n1", UserID: 7}, nil)
				owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{}, errors.New("db down"))
				states.EXPECT().Release(ctx, "s1").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, states, owners, _ := newTestHandshakeService(t, ctrl)
			tt.setup(states, owners)

			_, err := svc.Restore(ctx, tt.state, tt.nonce)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHandshakeService_Restore_ReleasesStateOfAnonymousHandshake(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	states := store.NewStateStore(store.NewMemoryKV())
	owners := mock.NewMockOwnerRepository(ctrl)
	svc := NewHandshakeService(states, owners, mock.NewMockOAuthClient(ctrl), testRedirectURI)

	require.NoError(t, states.Store(ctx, "s1", "n1", 0, testRedirectURI))
	owners.EXPECT().FindUser(ctx, int64(0)).Return(models.User{}, store.ErrNotFound)

	_, err := svc.Restore(ctx, "s1", "n1")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = states.Consume(ctx, "s1", "n1")
	assert.ErrorIs(t, err, store.ErrInvalidState, "state must not stay consumable")
}

// ── ForceLoginCheck ──────────────────────────────────────────────────────────

func TestHandshakeService_ForceLoginCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		signedIn   int64
		state      string
		forceLogin bool
		record     *models.HandshakeState
		fetchErr   error
		markErr    error
		want       bool
		wantErr    bool
	}{
		{name: "force login disabled", signedIn: 7, state: "s1"},
		{name: "nobody signed in", state: "s1", forceLogin: true},
		{name: "no state", signedIn: 7, forceLogin: true},
		{name: "unknown state", signedIn: 7, state: "s1", forceLogin: true, fetchErr: store.ErrNotFound},
		{name: "other user", signedIn: 8, state: "s1", forceLogin: true, record: &models.HandshakeState{UserID: 7}},
		{name: "anonymous handshake", signedIn: 7, state: "s1", forceLogin: true, record: &models.HandshakeState{}},
		{
			name: "already performed", signedIn: 7, state: "s1", forceLogin: true,
			record: &models.HandshakeState{UserID: 7, ForceLoginPerformed: true},
		},
		{name: "sign out once", signedIn: 7, state: "s1", forceLogin: true, record: &models.HandshakeState{UserID: 7}, want: true},
		{
			name: "mark fails", signedIn: 7, state: "s1", forceLogin: true,
			record: &models.HandshakeState{UserID: 7}, markErr: errors.New("kv down"), wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, states, _, _ := newTestHandshakeService(t, ctrl)

			if tt.record != nil || tt.fetchErr != nil {
				record := models.HandshakeState{}
				if tt.record != nil {
					record = *tt.record
				}
				states.EXPECT().Fetch(ctx, tt.state).Return(record, tt.fetchErr)
			}
			if tt.want || tt.wantErr {
				states.EXPECT().MarkForceLogin(ctx, tt.state).Return(tt.markErr)
			}

			got, err := svc.ForceLoginCheck(ctx, tt.signedIn, tt.state, tt.forceLogin)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
