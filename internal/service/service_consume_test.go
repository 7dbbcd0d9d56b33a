// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/mock"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testClientID = "multi-account-app"

type testConsumeDeps struct {
	states       *mock.MockStateStore
	applications *mock.MockApplicationRepository
	grants       *mock.MockGrantRepository
	tokens       *mock.MockTokenRepository
	owners       *mock.MockOwnerRepository
	oauth        *mock.MockOAuthClient
}

func newTestConsumeService(t *testing.T, ctrl *gomock.Controller, refreshFlow bool) (ConsumeService, testConsumeDeps) {
	t.Helper()
	deps := testConsumeDeps{
		states:       mock.NewMockStateStore(ctrl),
		applications: mock.NewMockApplicationRepository(ctrl),
		grants:       mock.NewMockGrantRepository(ctrl),
		tokens:       mock.NewMockTokenRepository(ctrl),
		owners:       mock.NewMockOwnerRepository(ctrl),
		oauth:        mock.NewMockOAuthClient(ctrl),
	}
	svc := NewConsumeService(
		deps.states,
		deps.applications,
		deps.grants,
		deps.tokens,
		NewOwnerResolver(deps.owners, nil),
		deps.oauth,
		nil,
		testClientID,
		refreshFlow,
	)
	return svc, deps
}

func validPayload() models.HandshakePayload {
	return models.HandshakePayload{State: "s1", Nonce: "n1", AuthorizationCode: "code"}
}

// expectValidCode covers the steps up to the token exchange.
func expectValidCode(ctx context.Context, deps testConsumeDeps) {
	deps.states.EXPECT().Consume(ctx, "s1", "n1").Return(models.HandshakeState{Nonce: "n1", UserID: 7}, nil)
	deps.applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{ID: 3, UID: testClientID}, nil)
	deps.grants.EXPECT().FindByToken(ctx, "code").Return(models.AccessGrant{ID: 1, ApplicationID: 3}, nil)
}

// ── Consume ──────────────────────────────────────────────────────────────────

func TestConsumeService_Consume_Success(t *testing.T) {
	for _, refreshFlow := range []bool{false, true} {
		t.Run("refresh flow "+map[bool]string{false: "off", true: "on"}[refreshFlow], func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, deps := newTestConsumeService(t, ctrl, refreshFlow)
			ctx := context.Background()

			expectValidCode(ctx, deps)
			deps.oauth.EXPECT().Exchange(ctx, "code").Return("issued", nil)
			deps.tokens.EXPECT().FindByToken(ctx, "issued").
				Return(models.AccessToken{ID: 20, Token: "issued", ResourceOwnerID: 7, Scopes: "read"}, nil)
			deps.tokens.EXPECT().MarkMultiAccount(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, token models.AccessToken) error {
					assert.True(t, token.MultiAccount)
					assert.Equal(t, refreshFlow, token.IsRefreshCredential())
					return nil
				})
			deps.owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil)
			deps.owners.EXPECT().FindAccount(ctx, int64(70)).
				Return(models.Account{ID: 70, Username: "alice", Domain: "example.org"}, nil)

			resp, err := svc.Consume(ctx, validPayload())
			require.NoError(t, err)
			assert.Equal(t, "issued", resp.Token)
			assert.Equal(t, "s1", resp.State)
			assert.Equal(t, "n1", resp.Nonce)
			assert.Equal(t, "70", resp.Account.ID)
			assert.Equal(t, "alice@example.org", resp.Account.Acct)
		})
	}
}

func TestConsumeService_Consume_MissingParameters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestConsumeService(t, ctrl, false)

	for _, p := range []models.HandshakePayload{
		{Nonce: "n1", AuthorizationCode: "code"},
		{State: "s1", AuthorizationCode: "code"},
		{State: "s1", Nonce: "n1"},
	} {
		_, err := svc.Consume(context.Background(), p)
		assert.ErrorIs(t, err, ErrMissingParameter)
	}
}

// Повторное использование state не доходит до сервера авторизации.
func TestConsumeService_Consume_InvalidState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestConsumeService(t, ctrl, false)
	ctx := context.Background()

	deps.states.EXPECT().Consume(ctx, "s1", "n1").Return(models.HandshakeState{}, store.ErrInvalidState)

	_, err := svc.Consume(ctx, validPayload())
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConsumeService_Consume_ApplicationMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestConsumeService(t, ctrl, false)
	ctx := context.Background()

	deps.states.EXPECT().Consume(ctx, "s1", "n1").Return(models.HandshakeState{}, nil)
	deps.applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{}, store.ErrNotFound)

	_, err := svc.Consume(ctx, validPayload())
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestConsumeService_Consume_GrantErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, deps := newTestConsumeService(t, ctrl, false)

		deps.states.EXPECT().Consume(ctx, "s1", "n1").Return(models.HandshakeState{}, nil)
		deps.applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{ID: 3}, nil)
		deps.grants.EXPECT().FindByToken(ctx, "code").Return(models.AccessGrant{}, store.ErrNotFound)

		_, err := svc.Consume(ctx, validPayload())
		assert.ErrorIs(t, err, ErrGrantNotFound)
	})

	t.Run("code of another application", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, deps := newTestConsumeService(t, ctrl, false)

		deps.states.EXPECT().Consume(ctx, "s1", "n1").Return(models.HandshakeState{}, nil)
		deps.applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{ID: 3}, nil)
		deps.grants.EXPECT().FindByToken(ctx, "code").Return(models.AccessGrant{ApplicationID: 99}, nil)

		_, err := svc.Consume(ctx, validPayload())
		assert.ErrorIs(t, err, ErrGrantMismatch)
	})
}

func TestConsumeService_Consume_ExchangeErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"rejected", adapter.ErrTokenExchangeUnauthorized, ErrTokenExchangeRejected},
		{"failed", errors.New("connection refused"), ErrTokenExchangeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestConsumeService(t, ctrl, false)

			expectValidCode(ctx, deps)
			deps.oauth.EXPECT().Exchange(ctx, "code").Return("", tt.err)

			_, err := svc.Consume(ctx, validPayload())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Ошибка записи флагов только логируется.
func TestConsumeService_Consume_MarkFailureTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestConsumeService(t, ctrl, true)
	ctx := context.Background()

	expectValidCode(ctx, deps)
	deps.oauth.EXPECT().Exchange(ctx, "code").Return("issued", nil)
	deps.tokens.EXPECT().FindByToken(ctx, "issued").Return(models.AccessToken{ID: 20, Token: "issued", ResourceOwnerID: 7}, nil)
	deps.tokens.EXPECT().MarkMultiAccount(ctx, gomock.Any()).Return(errors.New("db down"))
	deps.owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil)
	deps.owners.EXPECT().FindAccount(ctx, int64(70)).Return(models.Account{ID: 70, Username: "alice"}, nil)

	resp, err := svc.Consume(ctx, validPayload())
	require.NoError(t, err)
	assert.Equal(t, "issued", resp.Token)
}

func TestConsumeService_Consume_OwnerMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, deps := newTestConsumeService(t, ctrl, false)
	ctx := context.Background()

	expectValidCode(ctx, deps)
	deps.oauth.EXPECT().Exchange(ctx, "code").Return("issued", nil)
	deps.tokens.EXPECT().FindByToken(ctx, "issued").Return(models.AccessToken{ID: 20, ResourceOwnerID: 7}, nil)
	deps.tokens.EXPECT().MarkMultiAccount(ctx, gomock.Any()).Return(nil)
	deps.owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil)
	deps.owners.EXPECT().FindAccount(ctx, int64(70)).Return(models.Account{}, store.ErrNotFound)

	_, err := svc.Consume(ctx, validPayload())
	require.ErrorIs(t, err, ErrAccountNotFound)
}
