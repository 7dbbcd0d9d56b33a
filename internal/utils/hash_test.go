// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/md5"
	"math/big"
	"testing"
)

func TestRolloutBucket_Range(t *testing.T) {
	for id := int64(-50); id < 5000; id++ {
		b := RolloutBucket(id)
		if b < 1 || b > 100 {
			t.Fatalf("bucket for %d out of range: %d", id, b)
		}
	}
}

func TestRolloutBucket_Stable(t *testing.T) {
	for _, id := range []int64{1, 42, 1 << 40} {
		first := RolloutBucket(id)
		for i := 0; i < 10; i++ {
			if got := RolloutBucket(id); got != first {
				t.Fatalf("bucket for %d changed: %d != %d", id, got, first)
			}
		}
	}
}

func TestRolloutBucket_MatchesMD5(t *testing.T) {
	sum := md5.Sum([]byte("12345"))
	n := new(big.Int).SetBytes(sum[:])
	want := int(new(big.Int).Mod(n, big.NewInt(100)).Int64()) + 1

	if got := RolloutBucket(12345); got != want {
		t.Errorf("expected bucket %d, got %d", want, got)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("expected distinct tokens")
	}
}
