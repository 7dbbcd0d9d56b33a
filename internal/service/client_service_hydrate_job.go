// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// DefaultHydrateInterval is used when Start gets a non-positive interval.
const DefaultHydrateInterval = 5 * time.Minute

// Hydrator reloads the known accounts.
type Hydrator interface {
	Hydrate(ctx context.Context) error
}

// HydrateJob periodically re-hydrates the account list so legacy vault
// records whose upgrade failed are retried.
type HydrateJob interface {
	// Start launches the background goroutine. Any previously running job is
	// stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}

type clientHydrateJob struct {
	hydrator Hydrator

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHydrateJob creates a job that calls hydrator.Hydrate on a ticker. The
// job is idle until Start is called.
func NewHydrateJob(hydrator Hydrator) HydrateJob {
	return &clientHydrateJob{hydrator: hydrator}
}

// Start implements HydrateJob. The goroutine exits when ctx is cancelled or
// Stop is called.
func (j *clientHydrateJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHydrateInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if err := j.hydrator.Hydrate(jobCtx); err != nil {
					logger.FromContext(jobCtx).Warn().Err(err).Msg("periodic hydrate failed")
				}
			}
		}
	}()
}

// Stop implements HydrateJob. Safe to call when the job is not running.
func (j *clientHydrateJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
