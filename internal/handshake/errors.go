// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

import "errors"

var (
	ErrPopupOpenFailed     = errors.New("Failed to open popup window")
	ErrPopupNavigateFailed = errors.New("Failed to navigate popup window")
	ErrPopupClosed         = errors.New("OAuth popup was closed before authorization completed")
	ErrHandshakeTimeout    = errors.New("OAuth authorization timed out. Please try again.")
	ErrHandlerCleanedUp    = errors.New("OAuth handler was cleaned up")

	// ErrDuplicateState is returned by Open when a handshake with the same
	// state is already in flight.
	ErrDuplicateState = errors.New("handshake with this state is already pending")

	// ErrUnknownState is returned by Dispatch when no pending handshake
	// matches the message state.
	ErrUnknownState = errors.New("no pending handshake for state")

	// ErrOriginMismatch is returned by Dispatch in strict mode.
	ErrOriginMismatch = errors.New("message origin does not match")

	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// AuthorizationError is the rejection produced by an error message.
type AuthorizationError struct {
	// State is empty for unscoped errors that rejected every pending
	// handshake.
	State   string
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "OAuth authorization failed"
	}
	return e.Message
}
