// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/session"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/go-resty/resty/v2"
)

// CSRFHeader carries the rotated CSRF token on responses and the current one
// on requests.
const CSRFHeader = "X-CSRF-Token"

// API paths of the multi-account server.
const (
	PathEntry             = "/multi_accounts/entry"
	PathRestore           = "/multi_accounts/session/restore"
	PathConsume           = "/api/v1/multi_accounts/consume"
	PathRefresh           = "/api/v1/multi_accounts/session/refresh"
	PathRefreshToken      = "/api/v1/multi_accounts/refresh_token"
	PathTelemetry         = "/api/v1/multi_accounts/telemetry"
	PathVerifyCredentials = "/api/v1/accounts/verify_credentials"
	PathAccount           = "/api/v1/accounts/{id}"
)

type httpServerAdapter struct {
	client  *utils.HTTPClient
	baseURL string
	session *session.Context

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the resty implementation of
// [ServerAdapter]. It normalises adapterCfg.HTTPAddress into a base URL and
// installs a request hook that attaches the credentials of sess to every
// outgoing request.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, sess *session.Context, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)
	client.SetHeader("Accept", "application/json")

	h := &httpServerAdapter{client: client, baseURL: baseURL, session: sess, logger: logger}
	client.OnBeforeRequest(h.attachSession)

	return h, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// attachSession reads the session at send time. An explicit Authorization
// header on the request wins.
func (h *httpServerAdapter) attachSession(_ *resty.Client, r *resty.Request) error {
	creds := h.session.Load()
	if creds.BearerToken != "" && r.Header.Get("Authorization") == "" {
		r.SetHeader("Authorization", "Bearer "+creds.BearerToken)
	}
	if creds.CSRFToken != "" {
		r.SetHeader(CSRFHeader, creds.CSRFToken)
	}
	return nil
}

func (h *httpServerAdapter) BaseURL() string {
	return h.baseURL
}

// FetchEntry implements [ServerAdapter]. GET /multi_accounts/entry.
func (h *httpServerAdapter) FetchEntry(ctx context.Context, forceLogin bool) (models.EntryResponse, error) {
	var entry models.EntryResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("force_login", strconv.FormatBool(forceLogin)).
		SetResult(&entry).
		Get(PathEntry)
	if err != nil {
		return models.EntryResponse{}, fmt.Errorf("entry request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EntryResponse{}, err
	}

	return entry, nil
}

// ConsumeCode implements [ServerAdapter]. POST /api/v1/multi_accounts/consume.
func (h *httpServerAdapter) ConsumeCode(ctx context.Context, payload models.HandshakePayload) (models.ConsumeResponse, error) {
	var consumed models.ConsumeResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ConsumeRequest{Payload: &payload}).
		SetResult(&consumed).
		Post(PathConsume)
	if err != nil {
		return models.ConsumeResponse{}, fmt.Errorf("consume request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ConsumeResponse{}, err
	}

	return consumed, nil
}

// RestoreSession implements [ServerAdapter]. POST /multi_accounts/session/restore.
func (h *httpServerAdapter) RestoreSession(ctx context.Context, state, nonce string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.RestoreRequest{Payload: &models.HandshakePayload{State: state, Nonce: nonce}}).
		Post(PathRestore)
	if err != nil {
		return fmt.Errorf("restore request: %w", err)
	}

	return mapHTTPError(resp)
}

// RefreshSession implements [ServerAdapter].
// POST /api/v1/multi_accounts/session/refresh.
func (h *httpServerAdapter) RefreshSession(ctx context.Context, refreshToken string) (models.RefreshedSession, error) {
	var refreshed models.RefreshedSession

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.RefreshRequest{RefreshToken: refreshToken}).
		SetResult(&refreshed.TokenResponse).
		Post(PathRefresh)
	if err != nil {
		return models.RefreshedSession{}, fmt.Errorf("refresh request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RefreshedSession{}, err
	}

	refreshed.CSRFToken = resp.Header().Get(CSRFHeader)
	return refreshed, nil
}

// IssueRefreshToken implements [ServerAdapter].
// POST /api/v1/multi_accounts/refresh_token.
func (h *httpServerAdapter) IssueRefreshToken(ctx context.Context) (models.TokenResponse, error) {
	var issued models.TokenResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&issued).
		Post(PathRefreshToken)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("refresh token request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TokenResponse{}, err
	}

	return issued, nil
}

// VerifyCredentials implements [ServerAdapter].
// GET /api/v1/accounts/verify_credentials.
func (h *httpServerAdapter) VerifyCredentials(ctx context.Context) (models.AccountView, error) {
	var account models.AccountView

	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&account).
		Get(PathVerifyCredentials)
	if err != nil {
		return models.AccountView{}, fmt.Errorf("verify credentials request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AccountView{}, err
	}

	return account, nil
}

// FetchAccount implements [ServerAdapter]. GET /api/v1/accounts/{id}.
func (h *httpServerAdapter) FetchAccount(ctx context.Context, accountID string) (models.AccountView, error) {
	var account models.AccountView

	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", accountID).
		SetResult(&account).
		Get(PathAccount)
	if err != nil {
		return models.AccountView{}, fmt.Errorf("account request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AccountView{}, err
	}

	return account, nil
}

// SendTelemetry implements [ServerAdapter].
// POST /api/v1/multi_accounts/telemetry.
func (h *httpServerAdapter) SendTelemetry(ctx context.Context, event models.SwitchEvent) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(PathTelemetry)
	if err != nil {
		return fmt.Errorf("telemetry request: %w", err)
	}

	return mapHTTPError(resp)
}

// ClearCookies implements [ServerAdapter]. The jar is replaced; a failure to
// build the new jar leaves cookies disabled.
func (h *httpServerAdapter) ClearCookies() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("error recreating cookie jar")
		h.client.SetCookieJar(nil)
		return
	}
	h.client.SetCookieJar(jar)
}
