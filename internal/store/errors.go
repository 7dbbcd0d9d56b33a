// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by repository and KV methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrNotFound is returned when a key, row or record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidState is returned by [StateStore.Consume] when the state is
	// unknown, expired or the nonce does not match.
	ErrInvalidState = errors.New("invalid state")

	// ErrTooManyRequests is returned by [RateLimiter.Reserve] when the
	// caller has exhausted its budget for the current window.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrTokenNotSaved is returned when an INSERT of an access token
	// completes without returning the new row.
	ErrTokenNotSaved = errors.New("access token was not saved")

	// ErrUnsupportedKVBackend is returned for an unknown KV backend name.
	ErrUnsupportedKVBackend = errors.New("unsupported kv backend")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
