// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-multi-account/internal/app"
)

// Server-side errors.
var (
	ErrVersionIsNotSpecified = errors.New("app version is not specified")
	ErrInvalidDataProvided   = errors.New("invalid data provided")
	ErrMissingParameter      = errors.New("missing required parameter")

	ErrRefreshFlowDisabled = errors.New("multi-account refresh flow is disabled")
	ErrRolloutExcluded     = errors.New("this feature is not available for your account")

	ErrInvalidState = errors.New("invalid state or nonce")

	ErrApplicationNotFound   = errors.New("multi-account OAuth application not found")
	ErrGrantNotFound         = errors.New("authorization code not found or already used")
	ErrGrantMismatch         = errors.New("authorization code does not match the OAuth application")
	ErrTokenExchangeFailed   = errors.New("failed to exchange the authorization code for a token")
	ErrTokenExchangeRejected = errors.New("authorization server rejected the token exchange")
	ErrResourceOwnerNotFound = errors.New("resource owner not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrUserNotFound          = errors.New("user not found")

	ErrRefreshTokenRequired = errors.New("refresh_token is required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
	ErrNotLongLived         = errors.New("token is not long-lived")
	ErrTooManyRequests      = errors.New("too many requests")
	ErrInternal             = errors.New("internal server error")

	ErrUnauthenticated         = errors.New("authentication required")
	ErrAccessTokenInvalid      = errors.New("the access token is invalid")
	ErrSessionExpiredOrInvalid = errors.New("sign-in session is expired or invalid")
	ErrSessionCreationFailed   = errors.New("sign-in session creation failed")
)

// Client-side errors. Their messages are shown to the user as is.
var (
	ErrAccountNotKnown          = errors.New(app.MsgAccountNotKnown)
	ErrStoredTokenMissing       = errors.New(app.MsgStoredTokenMissing)
	ErrStoredTokenUndecryptable = errors.New(app.MsgStoredTokenUndecryptable)
	ErrStoredTokenInvalid       = errors.New(app.MsgStoredTokenInvalid)
	ErrSessionNotIssued         = errors.New(app.MsgSessionNotIssued)
	ErrSwitchInProgress         = errors.New(app.MsgSwitchInProgress)
	ErrNoActiveSession          = errors.New(app.MsgNoActiveSession)
	ErrRefreshRateLimited       = errors.New(app.MsgTooManyRequests)
)

// RefreshError is the outcome of a failed refresh exchange. Status is the
// HTTP status the failure maps to.
type RefreshError struct {
	Status int
	Err    error
}

func newRefreshError(status int, err error) *RefreshError {
	return &RefreshError{Status: status, Err: err}
}

func (e *RefreshError) Error() string {
	return e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// StatusOf returns the status carried by a [*RefreshError] in err's chain,
// or 500.
func StatusOf(err error) int {
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr.Status
	}
	return http.StatusInternalServerError
}
