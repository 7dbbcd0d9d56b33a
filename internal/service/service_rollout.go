// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/utils"
)

// rolloutGate is the configuration-only implementation of [RolloutGate]. It
// is immutable after construction and safe for concurrent use.
type rolloutGate struct {
	// refreshFlow is the global switch (MA_MULTI_ACCOUNT_REFRESH_FLOW).
	refreshFlow bool

	// internalUserIDs always pass while the refresh flow is enabled.
	internalUserIDs map[int64]struct{}

	// percentage of the remaining users that pass, 0..100.
	percentage int
}

func NewRolloutGate(multiAccount config.MultiAccount, rollout config.Rollout) RolloutGate {
	internal := make(map[int64]struct{}, len(rollout.InternalUserIDs))
	for _, id := range rollout.InternalUserIDs {
		internal[id] = struct{}{}
	}

	return &rolloutGate{
		refreshFlow:     multiAccount.RefreshFlow,
		internalUserIDs: internal,
		percentage:      rollout.RolloutPercentage(),
	}
}

func (g *rolloutGate) RefreshFlowEnabled() bool {
	return g.refreshFlow
}

// ShouldEnableForUser implements [RolloutGate].
//
// Order of checks:
//  1. refresh flow disabled → false;
//  2. user in the internal list → true;
//  3. percentage 0 → false;
//  4. RolloutBucket(userID) <= percentage.
func (g *rolloutGate) ShouldEnableForUser(userID int64) bool {
	if !g.refreshFlow {
		return false
	}

	if _, ok := g.internalUserIDs[userID]; ok {
		return true
	}

	if g.percentage <= 0 {
		return false
	}

	return utils.RolloutBucket(userID) <= g.percentage
}
