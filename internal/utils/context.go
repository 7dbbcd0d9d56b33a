// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils holds small helpers shared by the server and the client:
// typed context keys, rollout hashing, random tokens, JSON responses,
// client IP extraction, the resty client and sign-in JWTs.
package utils

import (
	"context"

	"github.com/MKhiriev/go-multi-account/models"
)

// contextKey keeps the keys of this package apart from string keys of
// other packages.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey holds the int64 id of the signed-in user or of the bearer
// token's resource owner.
var UserIDCtxKey = contextKey("userID")

// AccessTokenCtxKey holds the bearer [models.AccessToken] resolved by the
// authentication middleware.
var AccessTokenCtxKey = contextKey("accessToken")

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, userID)
}

// WithAccessToken stores token and its resource owner as the user.
func WithAccessToken(ctx context.Context, token models.AccessToken) context.Context {
	ctx = context.WithValue(ctx, AccessTokenCtxKey, token)
	return WithUserID(ctx, token.ResourceOwnerID)
}

// GetUserIDFromContext reports false when no user is stored or the value
// has another type. Anonymous requests have no user.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

func GetAccessTokenFromContext(ctx context.Context) (models.AccessToken, bool) {
	token, ok := ctx.Value(AccessTokenCtxKey).(models.AccessToken)
	return token, ok
}
