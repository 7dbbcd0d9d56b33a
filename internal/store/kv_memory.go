// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	list      []string
	isList    bool
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryKV is a process-local [KeyValue]. Expired keys are dropped lazily on
// access and in bulk by [MemoryKV.Sweep].
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]*memoryEntry
	now  func() time.Time
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]*memoryEntry), now: time.Now}
}

// lookup returns the live entry for key. Callers hold mu.
func (m *MemoryKV) lookup(key string) (*memoryEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return nil, false
	}
	return e, true
}

func (m *MemoryKV) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok || e.isList {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = &memoryEntry{value: value, expiresAt: m.deadline(ttl)}
	return nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryKV) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return 0, ErrNotFound
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, nil
	}
	return e.expiresAt.Sub(m.now()), nil
}

func (m *MemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return ErrNotFound
	}
	if ttl <= 0 {
		delete(m.data, key)
		return nil
	}
	e.expiresAt = m.deadline(ttl)
	return nil
}

func (m *MemoryKV) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrBy(ctx, key, 1)
}

func (m *MemoryKV) Decr(ctx context.Context, key string) (int64, error) {
	return m.IncrBy(ctx, key, -1)
}

func (m *MemoryKV) IncrBy(_ context.Context, key string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		e = &memoryEntry{value: "0"}
		m.data[key] = e
	}
	if e.isList {
		return 0, fmt.Errorf("incr %s: value is a list", key)
	}

	current, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("incr %s: value is not an integer", key)
	}
	current += n
	e.value = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *MemoryKV) LPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		e = &memoryEntry{isList: true}
		m.data[key] = e
	}
	if !e.isList {
		return fmt.Errorf("lpush %s: value is not a list", key)
	}

	// LPUSH a b c leaves c at the head.
	pushed := make([]string, 0, len(values)+len(e.list))
	for i := len(values) - 1; i >= 0; i-- {
		pushed = append(pushed, values[i])
	}
	e.list = append(pushed, e.list...)
	return nil
}

func (m *MemoryKV) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok || !e.isList {
		return nil
	}

	from, to, ok := listRange(int64(len(e.list)), start, stop)
	if !ok {
		delete(m.data, key)
		return nil
	}
	e.list = append([]string(nil), e.list[from:to]...)
	return nil
}

func (m *MemoryKV) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok || !e.isList {
		return []string{}, nil
	}

	from, to, ok := listRange(int64(len(e.list)), start, stop)
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), e.list[from:to]...), nil
}

// Sweep drops every expired key and reports how many were removed.
func (m *MemoryKV) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.data {
		if e.expired(now) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored keys, expired or not.
func (m *MemoryKV) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MemoryKV) Close() {}

// listRange converts Redis-style inclusive, possibly negative, indexes into a
// half-open slice range.
func listRange(length, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return 0, 0, false
	}
	return start, stop + 1, true
}
