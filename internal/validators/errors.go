// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrMissingPayload        = errors.New("payload is required")
	ErrMissingState          = errors.New("state is required")
	ErrMissingNonce          = errors.New("nonce is required")
	ErrMissingCode           = errors.New("authorization_code is required")
	ErrRefreshTokenRequired  = errors.New("refresh_token is required")
	ErrEmptyEvent            = errors.New("event is required")
	ErrEventTooLong          = errors.New("event name is too long")
	ErrInvalidLatency        = errors.New("latency_ms must not be negative")
	ErrInvalidReloadCount    = errors.New("reload_count must not be negative")
	ErrInvalidAccountID      = errors.New("account_id must be numeric")
	ErrHandshakeValueTooLong = errors.New("handshake value is too long")
)
