// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/store"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers registers the jobs the configured storages need. Only the
// in-memory key-value backend gets a sweeper; valkey expires keys itself.
func NewWorkers(storages *store.Storages, cfg config.Workers, log *logger.Logger) *Workers {
	w := &Workers{logger: log}

	if sweeper, ok := storages.KV.(Sweeper); ok {
		w.workers = append(w.workers, NewKVSweeper(sweeper, cfg.SweepInterval, log))
	}

	log.Info().Int("count", len(w.workers)).Msg("background workers registered")
	return w
}

// Len reports the number of registered workers.
func (w *Workers) Len() int {
	return len(w.workers)
}

// Run starts every worker and blocks until all of them returned.
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, worker := range w.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}
	wg.Wait()
}

type kvSweeper struct {
	kv       Sweeper
	interval time.Duration
	logger   *logger.Logger
}

// NewKVSweeper returns a worker calling kv.Sweep every interval. A
// non-positive interval falls back to [config.DefaultSweepInterval].
func NewKVSweeper(kv Sweeper, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		interval = config.DefaultSweepInterval
	}
	return &kvSweeper{kv: kv, interval: interval, logger: log}
}

func (s *kvSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug().Dur("interval", s.interval).Msg("kv sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("kv sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.kv.Sweep(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("expired kv keys swept")
			}
		}
	}
}
