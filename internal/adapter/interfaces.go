// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the outbound transports of both binaries.
//
// [ServerAdapter] is the switcher client's view of the multi-account HTTP
// API. Every request reads the bearer credential from a [session.Context] at
// send time. [OAuthClient] is the server's view of the authorization server
// used to build authorize URLs and exchange authorization codes.
//
// Non-2xx responses are mapped by mapHTTPError to an [*HTTPError] wrapping
// one of the sentinel values in errors.go, so callers can use [errors.Is]
// (e.g. [ErrUnprocessable] for 422, [ErrTooManyRequests] for 429).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-multi-account/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines the client's communication with the multi-account
// server.
type ServerAdapter interface {
	// BaseURL is the normalised server root, used as the expected origin of
	// handshake messages.
	BaseURL() string

	// FetchEntry starts an add-account handshake and returns the authorize
	// URL together with the state/nonce pair registered on the server.
	FetchEntry(ctx context.Context, forceLogin bool) (models.EntryResponse, error)

	// ConsumeCode exchanges the authorization code delivered to the popup.
	ConsumeCode(ctx context.Context, payload models.HandshakePayload) (models.ConsumeResponse, error)

	// RestoreSession releases a state/nonce pair of an abandoned handshake
	// and restores the web sign-in of the user that started it.
	RestoreSession(ctx context.Context, state, nonce string) error

	// RefreshSession exchanges a refresh credential for a session
	// credential. The CSRF token of the response header, if any, is returned
	// alongside.
	RefreshSession(ctx context.Context, refreshToken string) (models.RefreshedSession, error)

	// IssueRefreshToken mints a refresh credential for the current bearer.
	IssueRefreshToken(ctx context.Context) (models.TokenResponse, error)

	// VerifyCredentials returns the account of the current bearer.
	VerifyCredentials(ctx context.Context) (models.AccountView, error)

	// FetchAccount returns public account metadata.
	FetchAccount(ctx context.Context, accountID string) (models.AccountView, error)

	// SendTelemetry forwards a switch outcome record.
	SendTelemetry(ctx context.Context, event models.SwitchEvent) error

	// ClearCookies drops every cookie held by the client.
	ClearCookies()
}

// OAuthClient is the multi-account application's client of the
// authorization server.
type OAuthClient interface {
	// AuthCodeURL builds the authorize URL for state. forceLogin adds
	// prompt=login.
	AuthCodeURL(state string, forceLogin bool) string

	// Exchange trades an authorization code for an access token string.
	// Failures wrap [ErrTokenExchangeUnauthorized] or [ErrTokenExchangeFailed].
	Exchange(ctx context.Context, code string) (string, error)
}
