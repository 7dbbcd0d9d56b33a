// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

import "context"

//go:generate mockgen -source=window.go -destination=../mock/handshake_mock.go -package=mock

// Window is the authorization window of one handshake.
type Window interface {
	// Navigate points the window at url.
	Navigate(ctx context.Context, url string) error
	// Closed reports whether the user closed the window.
	Closed() bool
	// Post delivers a message to the window. Delivery is best-effort.
	Post(msg Message) error
	// Close closes the window.
	Close() error
}

// Opener creates authorization windows.
type Opener interface {
	Open(ctx context.Context, url string) (Window, error)
}
