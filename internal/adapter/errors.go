// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
	"fmt"
)

// Status sentinels wrapped by [HTTPError].
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("client unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrUnprocessable    = errors.New("unprocessable entity")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Authorization server exchange failures.
var (
	ErrTokenExchangeUnauthorized = errors.New("token exchange unauthorized")
	ErrTokenExchangeFailed       = errors.New("token exchange failed")
)

var ErrEmptyAddress = errors.New("empty address")

// HTTPError is a non-2xx response. Message is the "error" field of the JSON
// body when present, otherwise the raw body.
type HTTPError struct {
	Status  int
	Message string

	kind error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.kind
}

// StatusOf returns the status of an [*HTTPError] in err's chain, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
