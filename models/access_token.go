// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strings"
	"time"
)

// PurposeMultiAccountRefresh marks an access token that exists only to mint
// short-lived session tokens for the account switcher.
const PurposeMultiAccountRefresh = "multi_account_refresh"

// Application is a registered OAuth client.
type Application struct {
	ID          int64
	Name        string
	UID         string
	Secret      string
	RedirectURI string
	Scopes      string
}

// AccessGrant is a short-lived authorization code issued by the
// authorization server.
type AccessGrant struct {
	ID              int64
	ResourceOwnerID int64
	ApplicationID   int64
	Token           string
	ExpiresIn       time.Duration
	RedirectURI     string
	Scopes          string
	CreatedAt       time.Time
	RevokedAt       *time.Time
}

// AccessToken is a bearer credential stored by the authorization server and
// extended with multi-account flags.
type AccessToken struct {
	ID              int64
	Token           string
	ResourceOwnerID int64
	ApplicationID   int64
	Scopes          string

	// ExpiresIn is nil for tokens that never expire by age.
	ExpiresIn *time.Duration

	CreatedAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
	LastUsedIP *string

	MultiAccount bool
	Purpose      *string
	LongLived    bool
}

// IsRefreshCredential reports whether the token carries the refresh-purpose
// flags.
func (t *AccessToken) IsRefreshCredential() bool {
	return t.LongLived && t.Purpose != nil && *t.Purpose == PurposeMultiAccountRefresh
}

// Expired reports whether the token is past its expires_in window at now.
// Refresh credentials never expire by age.
func (t *AccessToken) Expired(now time.Time) bool {
	if t.IsRefreshCredential() {
		return false
	}
	if t.ExpiresIn == nil {
		return false
	}
	return !now.Before(t.CreatedAt.Add(*t.ExpiresIn))
}

// Revoked reports whether the token was revoked at or before now.
func (t *AccessToken) Revoked(now time.Time) bool {
	return t.RevokedAt != nil && !t.RevokedAt.After(now)
}

// Accessible reports whether the token may still authenticate requests.
func (t *AccessToken) Accessible(now time.Time) bool {
	return !t.Revoked(now) && !t.Expired(now)
}

// ExpiresAt returns the absolute expiry time, or nil when the token has no
// expires_in set.
func (t *AccessToken) ExpiresAt() *time.Time {
	if t.ExpiresIn == nil {
		return nil
	}
	at := t.CreatedAt.Add(*t.ExpiresIn)
	return &at
}

// ScopeList splits the space-separated scope string.
func (t *AccessToken) ScopeList() []string {
	return strings.Fields(t.Scopes)
}

// HasScope reports whether scope is granted to the token.
func (t *AccessToken) HasScope(scope string) bool {
	for _, s := range t.ScopeList() {
		if s == scope {
			return true
		}
	}
	return false
}

// MarkAsRefreshCredential sets the refresh-purpose flags in memory.
func (t *AccessToken) MarkAsRefreshCredential() {
	purpose := PurposeMultiAccountRefresh
	t.MultiAccount = true
	t.Purpose = &purpose
	t.LongLived = true
}
