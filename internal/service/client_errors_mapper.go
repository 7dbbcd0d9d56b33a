// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
)

// classifyRefreshError maps rejections of the stored credential to
// ErrStoredTokenInvalid and 429 to ErrRefreshRateLimited.
func classifyRefreshError(err error) error {
	switch adapter.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrStoredTokenInvalid, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRefreshRateLimited, err)
	default:
		return err
	}
}

// classifyVerifyError treats an invalid session credential like a rejected
// refresh credential.
func classifyVerifyError(err error) error {
	var httpErr *adapter.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	switch {
	case httpErr.Status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrStoredTokenInvalid, err)
	case httpErr.Status == http.StatusForbidden && strings.Contains(strings.ToLower(httpErr.Message), "invalid_token"):
		return fmt.Errorf("%w: %w", ErrStoredTokenInvalid, err)
	default:
		return err
	}
}
