// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"testing"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/stretchr/testify/assert"
)

func newTestGate(refreshFlow bool, percentage int, internal ...int64) RolloutGate {
	return NewRolloutGate(
		config.MultiAccount{RefreshFlow: refreshFlow},
		config.Rollout{InternalUserIDs: internal, Percentage: &percentage},
	)
}

func TestRolloutGate_Disabled(t *testing.T) {
	gate := newTestGate(false, 100, 1)

	assert.False(t, gate.RefreshFlowEnabled())
	for _, id := range []int64{1, 2, 3, 1000} {
		assert.False(t, gate.ShouldEnableForUser(id), "user %d", id)
	}
}

func TestRolloutGate_ZeroPercent(t *testing.T) {
	gate := newTestGate(true, 0, 42)

	for id := int64(1); id <= 500; id++ {
		if id == 42 {
			continue
		}
		assert.False(t, gate.ShouldEnableForUser(id), "user %d", id)
	}
	assert.True(t, gate.ShouldEnableForUser(42), "internal user always passes")
}

func TestRolloutGate_FullPercent(t *testing.T) {
	gate := newTestGate(true, 100)

	for id := int64(1); id <= 500; id++ {
		assert.True(t, gate.ShouldEnableForUser(id), "user %d", id)
	}
}

func TestRolloutGate_PartialMatchesBucket(t *testing.T) {
	gate := newTestGate(true, 30)

	for id := int64(1); id <= 200; id++ {
		want := utils.RolloutBucket(id) <= 30
		assert.Equal(t, want, gate.ShouldEnableForUser(id), "user %d", id)
	}
}

// Одинаковая конфигурация всегда даёт одинаковый ответ.
func TestRolloutGate_Deterministic(t *testing.T) {
	a := newTestGate(true, 50)
	b := newTestGate(true, 50)

	for id := int64(1); id <= 100; id++ {
		first := a.ShouldEnableForUser(id)
		assert.Equal(t, first, a.ShouldEnableForUser(id))
		assert.Equal(t, first, b.ShouldEnableForUser(id))
	}
}

func TestRolloutGate_DefaultPercentage(t *testing.T) {
	gate := NewRolloutGate(config.MultiAccount{RefreshFlow: true}, config.Rollout{})

	assert.True(t, gate.ShouldEnableForUser(12345))
}
