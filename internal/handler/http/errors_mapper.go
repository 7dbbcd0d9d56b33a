// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/internal/validators"
	"github.com/MKhiriev/go-multi-account/models"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:  http.StatusBadRequest,
	service.ErrMissingParameter:     http.StatusBadRequest,
	service.ErrRefreshTokenRequired: http.StatusBadRequest,
	errMalformedBody:                http.StatusBadRequest,

	validators.ErrMissingPayload:        http.StatusBadRequest,
	validators.ErrMissingState:          http.StatusBadRequest,
	validators.ErrMissingNonce:          http.StatusBadRequest,
	validators.ErrMissingCode:           http.StatusBadRequest,
	validators.ErrHandshakeValueTooLong: http.StatusBadRequest,
	validators.ErrRefreshTokenRequired:  http.StatusBadRequest,
	validators.ErrEmptyEvent:            http.StatusBadRequest,
	validators.ErrEventTooLong:          http.StatusBadRequest,
	validators.ErrInvalidAccountID:      http.StatusBadRequest,
	validators.ErrInvalidLatency:        http.StatusBadRequest,
	validators.ErrInvalidReloadCount:    http.StatusBadRequest,

	service.ErrInvalidState:            http.StatusUnauthorized,
	service.ErrGrantNotFound:           http.StatusUnauthorized,
	service.ErrGrantMismatch:           http.StatusUnauthorized,
	service.ErrTokenExchangeRejected:   http.StatusUnauthorized,
	service.ErrTokenExchangeFailed:     http.StatusBadRequest,
	service.ErrUnauthenticated:         http.StatusUnauthorized,
	service.ErrAccessTokenInvalid:      http.StatusUnauthorized,
	service.ErrSessionExpiredOrInvalid: http.StatusUnauthorized,
	ErrEmptyAuthorizationHeader:        http.StatusUnauthorized,
	ErrInvalidAuthorizationHeader:      http.StatusUnauthorized,

	service.ErrRefreshFlowDisabled: http.StatusForbidden,
	service.ErrRolloutExcluded:     http.StatusForbidden,

	service.ErrResourceOwnerNotFound: http.StatusNotFound,
	service.ErrAccountNotFound:       http.StatusNotFound,
	service.ErrUserNotFound:          http.StatusNotFound,

	service.ErrTooManyRequests: http.StatusTooManyRequests,

	service.ErrApplicationNotFound:   http.StatusInternalServerError,
	service.ErrSessionCreationFailed: http.StatusInternalServerError,
	service.ErrInternal:              http.StatusInternalServerError,
}

// statusFromError prefers the status carried by a refresh failure and falls
// back to the sentinel table.
func statusFromError(err error) int {
	var refreshErr *service.RefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr.Status
	}

	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the JSON error envelope. Server errors never
// expose their cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorStatus(w, r, err, statusFromError(err))
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromRequest(r).Err(err).Int("status", status).Msg("request failed")
		message = http.StatusText(status)
		if errors.Is(err, service.ErrApplicationNotFound) {
			message = service.ErrApplicationNotFound.Error()
		}
	}

	if _, writeErr := utils.WriteJSON(w, models.ErrorResponse{Error: message}, status); writeErr != nil {
		logger.FromRequest(r).Err(writeErr).Msg("error writing error response")
	}
}
