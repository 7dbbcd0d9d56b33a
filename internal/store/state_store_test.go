// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore() (*stateStore, *MemoryKV, *fakeClock) {
	kv, clock := newTestMemoryKV()
	s := &stateStore{kv: kv, now: clock.Now}
	return s, kv, clock
}

func TestStateStore_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 42, "https://example.com/callback"))

	record, err := s.Consume(ctx, "s1", "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", record.Nonce)
	assert.Equal(t, int64(42), record.UserID)
	assert.Equal(t, "https://example.com/callback", record.RedirectURI)
	assert.Equal(t, clock.Now(), record.CreatedAt)
	assert.False(t, record.ForceLoginPerformed)

	_, err = s.Consume(ctx, "s1", "n1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateStore_WrongNonceShortensTTL(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 1, "uri"))

	ttl, err := kv.TTL(ctx, stateKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, StateTTL, ttl)

	_, err = s.Consume(ctx, "s1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidState)

	ttl, err = kv.TTL(ctx, stateKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, StateFailureTTL, ttl)

	// record survives and still requires the right nonce
	_, err = s.Fetch(ctx, "s1")
	require.NoError(t, err)
}

func TestStateStore_ExpiresAfterFailureTTL(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 1, "uri"))
	_, err := s.Consume(ctx, "s1", "bad")
	require.ErrorIs(t, err, ErrInvalidState)

	clock.Advance(StateFailureTTL)

	_, err = s.Consume(ctx, "s1", "n1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateStore_ConsumeMissing(t *testing.T) {
	s, kv, _ := newTestStateStore()

	_, err := s.Consume(context.Background(), "nope", "n")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, kv.Len())
}

func TestStateStore_MarkForceLoginKeepsTTL(t *testing.T) {
	ctx := context.Background()
	s, kv, clock := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 7, "uri"))
	clock.Advance(10 * time.Minute)

	require.NoError(t, s.MarkForceLogin(ctx, "s1"))

	record, err := s.Fetch(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, record.ForceLoginPerformed)
	assert.Equal(t, "n1", record.Nonce)

	ttl, err := kv.TTL(ctx, stateKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestStateStore_MarkForceLoginWithoutTTLUsesFullTTL(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStateStore()

	require.NoError(t, kv.Set(ctx, stateKey("s1"), `{"nonce":"n1","user_id":1}`, 0))
	require.NoError(t, s.MarkForceLogin(ctx, "s1"))

	ttl, err := kv.TTL(ctx, stateKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, StateTTL, ttl)
}

func TestStateStore_MarkForceLoginMissing(t *testing.T) {
	s, _, _ := newTestStateStore()
	assert.ErrorIs(t, s.MarkForceLogin(context.Background(), "nope"), ErrNotFound)
}

func TestStateStore_ReleaseAndCorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 1, "uri"))
	require.NoError(t, s.Release(ctx, "s1"))
	_, err := s.Fetch(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, stateKey("bad"), "{not json", time.Minute))
	_, err = s.Fetch(ctx, "bad")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, kv.Len())
}

func TestStateStore_RecordJSONShape(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStateStore()

	require.NoError(t, s.Store(ctx, "s1", "n1", 9, "uri"))

	raw, err := kv.Get(ctx, "multi_account:state:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":"n1","user_id":9,"redirect_uri":"uri","created_at":"2026-01-01T00:00:00Z","force_login_performed":false}`, raw)
}
