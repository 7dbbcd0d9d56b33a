// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// multi-account server handlers and the switcher client.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies, shown in the terminal UI or written to log entries.
// Keeping them in one place ensures consistent wording on both sides of the
// wire.
package app

// Server response messages.
const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded or fails basic validation.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgMissingParameters is returned when state, nonce or code is absent.
	MsgMissingParameters = "Missing required parameters"

	// MsgInvalidState is returned for unknown, expired, replayed or
	// mismatched state/nonce pairs.
	MsgInvalidState = "Invalid state"

	// MsgApplicationNotFound is returned when the multi-account OAuth
	// application is not registered.
	MsgApplicationNotFound = "Multi-account application not found"

	// MsgInvalidAuthorizationCode is returned when the code is unknown or was
	// issued to a different application.
	MsgInvalidAuthorizationCode = "Invalid authorization code"

	// MsgTokenExchangeFailed is returned when the authorization server
	// rejects the code exchange.
	MsgTokenExchangeFailed = "Token exchange failed"

	// MsgResourceOwnerNotFound is returned when the token owner cannot be
	// resolved.
	MsgResourceOwnerNotFound = "Resource owner not found"

	// MsgAccountNotFound is returned when the owner has no account.
	MsgAccountNotFound = "Account not found"

	// MsgUserNotFound is returned when the user does not exist.
	MsgUserNotFound = "User not found"

	// MsgRefreshTokenRequired is returned by refresh without a token.
	MsgRefreshTokenRequired = "Refresh token is required"

	// MsgInvalidRefreshToken is returned for unknown refresh tokens.
	MsgInvalidRefreshToken = "Invalid refresh token"

	// MsgRefreshTokenRevoked is returned for revoked refresh tokens.
	MsgRefreshTokenRevoked = "Refresh token has been revoked"

	// MsgNotLongLived is returned when the token is not a refresh credential.
	MsgNotLongLived = "Token is not a long-lived refresh token"

	// MsgRefreshFlowDisabled is returned when the refresh flow is off.
	MsgRefreshFlowDisabled = "Multi-account refresh flow is disabled"

	// MsgRolloutExcluded is returned when the rollout gate excludes the user.
	MsgRolloutExcluded = "Multi-account refresh flow is not available for this user"

	// MsgTooManyRequests is returned when a rate limit is exhausted.
	MsgTooManyRequests = "Too many refresh attempts. Please try again later."

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs that the client cannot resolve.
	MsgInternalServerError = "internal server error"

	// MsgUnauthenticated is returned when no credential was presented.
	MsgUnauthenticated = "The access token is invalid"

	// MsgSessionExpiredOrInvalid is returned when the web sign-in cookie is
	// expired or cannot be verified.
	MsgSessionExpiredOrInvalid = "session is expired or invalid"

	// MsgMethodNotAllowed is returned for unsupported HTTP methods.
	MsgMethodNotAllowed = "method not allowed"

	// MsgInvalidTelemetryEvent is returned when a switch outcome record has
	// an unknown event name.
	MsgInvalidTelemetryEvent = "invalid telemetry event"
)

// Client messages shown in the terminal UI.
const (
	// MsgAccountNotKnown is shown when switching to an account that is not
	// stored locally.
	MsgAccountNotKnown = "Account is not registered on this device"

	// MsgStoredTokenMissing is shown when the account has no stored
	// credential.
	MsgStoredTokenMissing = "Stored token not found. Please add the account again."

	// MsgStoredTokenUndecryptable is shown when the stored credential cannot
	// be decrypted even after a key reset.
	MsgStoredTokenUndecryptable = "Stored account token cannot be decrypted. Please add the account again."

	// MsgStoredTokenInvalid is shown when the server rejects the stored
	// credential.
	MsgStoredTokenInvalid = "Stored account token has expired or cannot be used. Please sign in and add the account again."

	// MsgSessionNotIssued is shown when refresh succeeded without a token.
	MsgSessionNotIssued = "Session token was not issued."

	// MsgSwitchInProgress is shown when the same account is already being
	// switched to.
	MsgSwitchInProgress = "A switch to this account is already in progress"

	// MsgNoActiveSession is shown when registering the current session
	// without a signed-in account.
	MsgNoActiveSession = "No signed-in account"
)
