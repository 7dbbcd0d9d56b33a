// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-multi-account/models"
)

// Field names accepted by RequestValidator.
const (
	// FieldPayload requires the handshake payload of a consume or restore
	// request to be present.
	FieldPayload = "payload"

	// FieldState, FieldNonce and FieldAuthorizationCode target the values
	// of a handshake payload.
	FieldState             = "state"
	FieldNonce             = "nonce"
	FieldAuthorizationCode = "authorization_code"

	FieldRefreshToken = "refresh_token"

	// Switch event fields.
	FieldEvent       = "event"
	FieldAccountID   = "account_id"
	FieldLatency     = "latency_ms"
	FieldReloadCount = "reload_count"
)

const (
	maxEventLength          = 64
	maxHandshakeValueLength = 256
)

// RequestValidator validates the bodies of the multi-account endpoints.
type RequestValidator struct{}

func NewRequestValidator() Validator {
	return &RequestValidator{}
}

// Validate dispatches on the dynamic type of obj. Value and pointer forms
// of every supported model are accepted:
//   - models.HandshakePayload
//   - models.ConsumeRequest
//   - models.RestoreRequest
//   - models.RefreshRequest
//   - models.SwitchEvent
func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.HandshakePayload:
		return v.validatePayload(value, fields...)
	case *models.HandshakePayload:
		return v.validatePayload(*value, fields...)

	case models.ConsumeRequest:
		return v.validateWrapped(value.Payload, fields...)
	case *models.ConsumeRequest:
		return v.validateWrapped(value.Payload, fields...)

	case models.RestoreRequest:
		return v.validateWrapped(value.Payload, fields...)
	case *models.RestoreRequest:
		return v.validateWrapped(value.Payload, fields...)

	case models.RefreshRequest:
		return v.validateRefresh(value, fields...)
	case *models.RefreshRequest:
		return v.validateRefresh(*value, fields...)

	case models.SwitchEvent:
		return v.validateSwitchEvent(value, fields...)
	case *models.SwitchEvent:
		return v.validateSwitchEvent(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validatePayload checks state, nonce and authorization code by default.
func (v *RequestValidator) validatePayload(payload models.HandshakePayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldState, FieldNonce, FieldAuthorizationCode}
	}

	for _, f := range fields {
		var value string
		var missing error
		switch f {
		case FieldState:
			value, missing = payload.State, ErrMissingState
		case FieldNonce:
			value, missing = payload.Nonce, ErrMissingNonce
		case FieldAuthorizationCode:
			value, missing = payload.AuthorizationCode, ErrMissingCode
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}

		if value == "" {
			return missing
		}
		if len(value) > maxHandshakeValueLength {
			return fmt.Errorf("%w: %s", ErrHandshakeValueTooLong, f)
		}
	}

	return nil
}

// validateWrapped requires the payload to be present. Other fields are
// checked on the payload itself.
func (v *RequestValidator) validateWrapped(payload *models.HandshakePayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldPayload}
	}

	if payload == nil {
		return ErrMissingPayload
	}

	var payloadFields []string
	for _, f := range fields {
		if f != FieldPayload {
			payloadFields = append(payloadFields, f)
		}
	}
	if len(payloadFields) == 0 {
		return nil
	}
	return v.validatePayload(*payload, payloadFields...)
}

func (v *RequestValidator) validateRefresh(request models.RefreshRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRefreshToken}
	}

	for _, f := range fields {
		switch f {
		case FieldRefreshToken:
			if request.RefreshToken == "" {
				return ErrRefreshTokenRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

// validateSwitchEvent checks the shape of an event only. Whether the event
// name is known is decided by the telemetry service.
func (v *RequestValidator) validateSwitchEvent(event models.SwitchEvent, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEvent, FieldAccountID, FieldLatency, FieldReloadCount}
	}

	for _, f := range fields {
		switch f {
		case FieldEvent:
			if event.Event == "" {
				return ErrEmptyEvent
			}
			if len(event.Event) > maxEventLength {
				return ErrEventTooLong
			}
		case FieldAccountID:
			if !isNumeric(event.AccountID) {
				return ErrInvalidAccountID
			}
		case FieldLatency:
			if event.LatencyMs != nil && *event.LatencyMs < 0 {
				return ErrInvalidLatency
			}
		case FieldReloadCount:
			if event.ReloadCount != nil && *event.ReloadCount < 0 {
				return ErrInvalidReloadCount
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

// isNumeric accepts an empty id.
func isNumeric(id string) bool {
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
