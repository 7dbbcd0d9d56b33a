// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strconv"
	"time"
)

// AccountView is the public JSON representation of an [Account].
type AccountView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

// NewAccountView renders account for API responses.
func NewAccountView(account Account) AccountView {
	return AccountView{
		ID:          strconv.FormatInt(account.ID, 10),
		Username:    account.Username,
		Acct:        account.Acct(),
		DisplayName: account.DisplayName,
		Avatar:      account.AvatarURL,
	}
}

// HandshakePayload is the state/nonce pair echoed by the client.
type HandshakePayload struct {
	State             string `json:"state"`
	Nonce             string `json:"nonce"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}

// ConsumeRequest is the body of POST /api/v1/multi_accounts/consume.
type ConsumeRequest struct {
	Payload *HandshakePayload `json:"payload"`
}

// RestoreRequest is the body of POST /multi_accounts/session/restore.
type RestoreRequest struct {
	Payload *HandshakePayload `json:"payload"`
}

// RefreshRequest is the body of POST /api/v1/multi_accounts/session/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse describes an issued credential and the account it belongs to.
type TokenResponse struct {
	Token     string      `json:"token"`
	Account   AccountView `json:"account"`
	Scope     string      `json:"scope"`
	ExpiresAt *time.Time  `json:"expires_at"`
}

// ConsumeResponse is returned after a successful code consumption. It echoes
// the handshake correlation values back to the caller.
type ConsumeResponse struct {
	TokenResponse
	State string `json:"state"`
	Nonce string `json:"nonce"`
}

// EntryResponse starts an add-account handshake.
type EntryResponse struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state"`
	Nonce        string `json:"nonce"`
}

// ErrorResponse is the JSON error envelope of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SwitchEvent is a client-side switch outcome forwarded to the server.
type SwitchEvent struct {
	Event       string    `json:"event"`
	AccountID   string    `json:"account_id,omitempty"`
	Success     bool      `json:"success"`
	Reason      string    `json:"reason,omitempty"`
	LatencyMs   *int64    `json:"latency_ms,omitempty"`
	ReloadCount *int      `json:"reload_count,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// MetricsSummary is the operator view of switch and refresh telemetry.
type MetricsSummary struct {
	SwitchSuccessRate  float64 `json:"switch_success_rate"`
	RefreshSuccessRate float64 `json:"refresh_success_rate"`
	SwitchDurations    []int64 `json:"switch_durations_ms"`
	RefreshDurations   []int64 `json:"refresh_durations_ms"`
}

// RefreshedSession is a session credential returned by the refresh endpoint
// together with the CSRF token of the response, if any.
type RefreshedSession struct {
	TokenResponse
	CSRFToken string `json:"-"`
}

// NewTokenResponse renders an issued token.
func NewTokenResponse(token AccessToken, account Account) TokenResponse {
	return TokenResponse{
		Token:     token.Token,
		Account:   NewAccountView(account),
		Scope:     token.Scopes,
		ExpiresAt: token.ExpiresAt(),
	}
}
