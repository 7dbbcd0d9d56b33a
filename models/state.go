// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// HandshakeState binds a single add-account handshake to the user that
// started it. It is stored as JSON in the ephemeral key-value store.
type HandshakeState struct {
	Nonce               string    `json:"nonce"`
	UserID              int64     `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	CreatedAt           time.Time `json:"created_at"`
	ForceLoginPerformed bool      `json:"force_login_performed"`
}
