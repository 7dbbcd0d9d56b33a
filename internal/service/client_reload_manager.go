// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"net/url"
	"sync"

	"github.com/MKhiriev/go-multi-account/internal/logger"
)

const (
	// DefaultReloadTarget is where the application lands after a switch.
	DefaultReloadTarget = "/home?_switch=1"

	// MaxReloadAttempts bounds consecutive reloads that never finalized.
	MaxReloadAttempts = 2
)

// ReloadFunc rebinds every in-memory cache of the application to the active
// account and shows target.
type ReloadFunc func(ctx context.Context, target string) error

type reloadManager struct {
	mu     sync.Mutex
	count  int
	reload ReloadFunc
	log    SwitchLogger
}

func NewReloadManager(reload ReloadFunc, log SwitchLogger) ReloadManager {
	return &reloadManager{reload: reload, log: log}
}

func (m *reloadManager) Reload(ctx context.Context, target string) bool {
	m.mu.Lock()
	if m.count >= MaxReloadAttempts {
		attempts := m.count
		m.count = 0
		m.mu.Unlock()

		m.log.Reload(ctx, attempts)
		return false
	}
	m.count++
	count := m.count
	m.mu.Unlock()

	m.log.Reload(ctx, count)

	if m.reload == nil {
		return true
	}
	if err := m.reload(ctx, sanitizeReloadTarget(target)); err != nil {
		logger.FromContext(ctx).Err(err).Str("target", target).Msg("failed to reload after account switch")
		m.mu.Lock()
		m.count = 0
		m.mu.Unlock()
	}
	return true
}

func (m *reloadManager) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count > 0 {
		m.count--
	}
}

func (m *reloadManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// sanitizeReloadTarget keeps only the path, query and fragment of target.
func sanitizeReloadTarget(target string) string {
	if target == "" {
		return DefaultReloadTarget
	}

	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		return DefaultReloadTarget
	}

	out := u.Path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.Fragment
	}
	return out
}
