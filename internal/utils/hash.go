// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

var hundred = big.NewInt(100)

// RolloutBucket maps userID onto a stable bucket in 1..100.
//
// The bucket is MD5(decimal userID) read as a big-endian unsigned integer,
// modulo 100, plus one. The mapping depends on nothing but the id.
func RolloutBucket(userID int64) int {
	sum := md5.Sum([]byte(strconv.FormatInt(userID, 10)))

	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, hundred)

	return int(n.Int64()) + 1
}

// GenerateToken returns n random bytes hex encoded.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
