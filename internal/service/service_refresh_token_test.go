// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/mock"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestIssuer(t *testing.T, ctrl *gomock.Controller) (*refreshTokenIssuer, *mock.MockApplicationRepository, *mock.MockTokenRepository, *mock.MockOwnerRepository) {
	t.Helper()
	applications := mock.NewMockApplicationRepository(ctrl)
	tokens := mock.NewMockTokenRepository(ctrl)
	owners := mock.NewMockOwnerRepository(ctrl)

	issuer := NewRefreshTokenIssuer(applications, tokens, NewOwnerResolver(owners, nil), testClientID).(*refreshTokenIssuer)
	issuer.now = func() time.Time { return refreshNow }
	issuer.newToken = func() (string, error) { return "long-lived", nil }

	return issuer, applications, tokens, owners
}

func TestRefreshTokenIssuer_Issue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuer, applications, tokens, owners := newTestIssuer(t, ctrl)
	ctx := context.Background()

	applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{ID: 3}, nil)
	owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil)
	owners.EXPECT().FindAccount(ctx, int64(70)).Return(models.Account{ID: 70, Username: "alice"}, nil)
	tokens.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, token models.AccessToken) (models.AccessToken, error) {
			assert.Equal(t, "long-lived", token.Token)
			assert.Equal(t, int64(7), token.ResourceOwnerID)
			assert.Equal(t, int64(3), token.ApplicationID)
			assert.Equal(t, "read write follow", token.Scopes)
			assert.True(t, token.IsRefreshCredential())
			require.NotNil(t, token.ExpiresIn)
			assert.Equal(t, 10*365*24*time.Hour, *token.ExpiresIn)
			token.ID = 30
			return token, nil
		})

	token, account, err := issuer.Issue(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(30), token.ID)
	assert.Equal(t, "alice", account.Username)
	// refresh-токен не истекает по возрасту
	assert.False(t, token.Expired(refreshNow.Add(20*365*24*time.Hour)))
}

func TestRefreshTokenIssuer_Issue_ApplicationMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuer, applications, _, _ := newTestIssuer(t, ctrl)
	ctx := context.Background()

	applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{}, store.ErrNotFound)

	_, _, err := issuer.Issue(ctx, 7)
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestRefreshTokenIssuer_Issue_CreateError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuer, applications, tokens, owners := newTestIssuer(t, ctrl)
	ctx := context.Background()

	applications.EXPECT().FindByUID(ctx, testClientID).Return(models.Application{ID: 3}, nil)
	owners.EXPECT().FindUser(ctx, int64(7)).Return(models.User{UserID: 7, AccountID: 70}, nil)
	owners.EXPECT().FindAccount(ctx, int64(70)).Return(models.Account{ID: 70}, nil)
	tokens.EXPECT().Create(ctx, gomock.Any()).Return(models.AccessToken{}, errors.New("db down"))

	_, _, err := issuer.Issue(ctx, 7)
	require.Error(t, err)
}
