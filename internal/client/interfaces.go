// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run starts the client application and blocks until ctx is cancelled
	// or the user quits.
	Run(ctx context.Context) error
}

// UI is the interactive front end driven by the application.
type UI interface {
	Run(ctx context.Context) error
}

// CallbackServer receives authorization redirects while the UI runs.
type CallbackServer interface {
	Start(ctx context.Context) error
	Stop()
}
