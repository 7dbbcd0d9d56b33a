// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the server's background jobs.
//
// A [Worker] blocks in Run until its context is cancelled. [Workers] starts
// every registered worker in its own goroutine and waits for all of them.
package workers

import "context"

// Worker is a long running background job.
//
// Implementations must return once ctx is done.
type Worker interface {
	Run(ctx context.Context)
}

// Sweeper evicts expired entries and reports how many were removed.
// It is implemented by the in-memory key-value store.
type Sweeper interface {
	Sweep() int
}
