// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerWithVersion(t *testing.T, version string) *Handler {
	t.Helper()
	return newTestHandler(t, &service.Services{AppInfoService: &mockAppInfoService{version: version}})
}

func TestGetServerVersion_TableTest(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "semver", version: "1.2.3"},
		{name: "empty", version: ""},
		{name: "pre-release with build metadata", version: "v2.0.0-beta+build.42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerWithVersion(t, tt.version)

			rec := httptest.NewRecorder()
			h.getServerVersion(rec, injectNopLogger(httptest.NewRequest(http.MethodGet, "/api/version/", nil)))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.version, rec.Body.String())
		})
	}
}

func TestGetServerVersion_ViaRouter(t *testing.T) {
	const want = "3.0.0"

	router := newHandlerWithVersion(t, want).Init()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, rec.Body.String())
}

func TestGetServerVersion_Headers(t *testing.T) {
	h := newHandlerWithVersion(t, "1.0.0")

	rec := httptest.NewRecorder()
	h.getServerVersion(rec, injectNopLogger(httptest.NewRequest(http.MethodGet, "/api/version/", nil)))

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}
