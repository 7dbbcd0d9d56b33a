// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/internal/validators"
	"github.com/MKhiriev/go-multi-account/models"
)

//go:embed templates/callback.html
var callbackHTML string

var callbackTemplate = template.Must(template.New("callback").Parse(callbackHTML))

const (
	messageCallback = "multi-account-callback"
	messageError    = "multi-account-error"
)

// callbackMessage is posted by the callback page to its opener.
type callbackMessage struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type callbackPage struct {
	Message callbackMessage
	Origin  string
	Error   string
}

func (h *Handler) entry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	forceLogin := true
	if raw := r.URL.Query().Get("force_login"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeErrorStatus(w, r, service.ErrInvalidDataProvided, http.StatusBadRequest)
			return
		}
		forceLogin = parsed
	}

	userID, _ := utils.GetUserIDFromContext(ctx)
	entry, err := h.services.HandshakeService.Entry(ctx, userID, forceLogin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Info().Int64("user_id", userID).Bool("force_login", forceLogin).Msg("[MultiAccount] handshake started")
	utils.WriteJSON(w, entry, http.StatusOK)
}

// callback renders the page that hands the authorization code to the window
// that opened the authorization flow.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	if state == "" || code == "" {
		h.renderCallback(w, r, http.StatusBadRequest, callbackPage{
			Message: callbackMessage{Type: messageError, State: state, Error: "missing required parameter"},
			Error:   "Missing required parameter.",
		})
		return
	}

	record, err := h.services.HandshakeService.Callback(ctx, state)
	if err != nil {
		page := callbackPage{
			Message: callbackMessage{Type: messageError, State: state},
			Error:   "The sign-in session expired or is invalid. Please try again.",
		}
		if !errors.Is(err, service.ErrInvalidState) {
			log.Err(err).Msg("multi-account callback error")
			page.Error = "Something went wrong while adding the account. Please try again."
		}
		page.Message.Error = page.Error
		h.renderCallback(w, r, http.StatusBadRequest, page)
		return
	}

	h.renderCallback(w, r, http.StatusOK, callbackPage{
		Message: callbackMessage{Type: messageCallback, State: state, Code: code},
		Origin:  redirectOrigin(record.RedirectURI),
	})
}

func (h *Handler) renderCallback(w http.ResponseWriter, r *http.Request, status int, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := callbackTemplate.Execute(w, page); err != nil {
		logger.FromRequest(r).Err(err).Msg("error rendering callback page")
	}
}

// redirectOrigin returns scheme://host[:port] of uri, or "" when uri is not
// absolute.
func redirectOrigin(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// restoreSession signs the browser back in as the user that started the
// handshake and releases the state.
func (h *Handler) restoreSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, errMalformedBody)
		return
	}
	if err := h.validator.Validate(ctx, request, validators.FieldPayload); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.services.HandshakeService.Restore(ctx, request.Payload.State, request.Payload.Nonce)
	if err != nil {
		log.Warn().Err(err).Msg("failed to restore multi-account session")
		h.writeError(w, r, err)
		return
	}

	if err = h.signIn(w, r, user.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// forceLoginCheck signs out the current browser session once per handshake
// so the authorization page asks for another account.
func (h *Handler) forceLoginCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	forceLogin := query.Get("prompt") == "login"
	if raw := query.Get("force_login"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			forceLogin = forceLogin || parsed
		}
	}

	userID, _ := utils.GetUserIDFromContext(ctx)
	signOut, err := h.services.HandshakeService.ForceLoginCheck(ctx, userID, query.Get("state"), forceLogin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if signOut {
		h.clearSessionCookie(w)
		logger.FromRequest(r).Info().Int64("user_id", userID).Msg("[MultiAccount] force login sign-out")
	}

	utils.WriteJSON(w, map[string]bool{"signed_out": signOut}, http.StatusOK)
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request models.ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, errMalformedBody)
		return
	}
	if err := h.validator.Validate(ctx, request, validators.FieldPayload); err != nil {
		h.writeError(w, r, err)
		return
	}

	consumed, err := h.services.ConsumeService.Consume(ctx, *request.Payload)
	if err != nil {
		logger.FromRequest(r).Warn().Err(err).Msg("multi-account consume failed")
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, consumed, http.StatusOK)
}

// refreshSession exchanges a refresh credential for a session credential and
// signs the browser in as its owner.
func (h *Handler) refreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, r, errMalformedBody)
		return
	}
	if err := h.validator.Validate(ctx, request); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.services.RefreshService.CheckEligibility(ctx, request.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.services.RefreshService.Refresh(ctx, request.RefreshToken, utils.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err = h.signIn(w, r, result.Owner.UserID()); err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", result.Owner.UserID()).
		Int64("access_token_id", result.AccessToken.ID).
		Msg("[MultiAccount] session refreshed")

	utils.WriteJSON(w, models.NewTokenResponse(result.AccessToken, result.Owner.Account), http.StatusOK)
}

func (h *Handler) issueRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, service.ErrUnauthenticated)
		return
	}

	token, account, err := h.services.RefreshTokenIssuer.Issue(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			logger.FromRequest(r).Error().Msg("multi-account application not found for refresh_token")
			h.writeErrorStatus(w, r, err, http.StatusNotFound)
			return
		}
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.NewTokenResponse(token, account), http.StatusOK)
}

// telemetry stores a client reported switch outcome. Anonymous reports are
// kept with user id 0.
func (h *Handler) telemetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event models.SwitchEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeError(w, r, errMalformedBody)
		return
	}
	if err := h.validator.Validate(ctx, event); err != nil {
		h.writeError(w, r, err)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	userID, _ := utils.GetUserIDFromContext(ctx)
	if err := h.services.TelemetryService.RecordSwitch(ctx, userID, event); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) metricsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.services.TelemetryService.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}
