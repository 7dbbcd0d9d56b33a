// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTraceHandler() *Handler {
	return &Handler{logger: logger.Nop()}
}

func executeWithTraceID(h *Handler, incoming string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/multi_accounts/consume", nil)
	if incoming != "" {
		req.Header.Set(traceIDHeader, incoming)
	}

	rr := httptest.NewRecorder()
	h.withTraceID(next).ServeHTTP(rr, req)
	return rr
}

// ---- Response header ----

func TestWithTraceID_TableTest(t *testing.T) {
	tests := []struct {
		name          string
		incoming      string
		wantSame      bool
		wantValidUUID bool
	}{
		{
			name:     "custom id is reused",
			incoming: "switcher-1a2b3c",
			wantSame: true,
		},
		{
			name:     "uuid is reused",
			incoming: "550e8400-e29b-41d4-a716-446655440000",
			wantSame: true,
		},
		{
			name:     "dotted id is reused",
			incoming: "span.42_a",
			wantSame: true,
		},
		{
			name:          "missing id is generated",
			wantValidUUID: true,
		},
		{
			name:          "whitespace is replaced",
			incoming:      "bad id",
			wantValidUUID: true,
		},
		{
			name:          "header injection is replaced",
			incoming:      "x\r\nSet-Cookie: a=b",
			wantValidUUID: true,
		},
		{
			name:          "oversized id is replaced",
			incoming:      strings.Repeat("a", maxTraceIDLength+1),
			wantValidUUID: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := executeWithTraceID(newTraceHandler(), tt.incoming)

			got := rr.Header().Get(traceIDHeader)
			require.NotEmpty(t, got)
			assert.Equal(t, http.StatusOK, rr.Code)

			if tt.wantSame {
				assert.Equal(t, tt.incoming, got)
			}
			if tt.wantValidUUID {
				_, err := uuid.Parse(got)
				assert.NoError(t, err, "generated trace ID should be a UUID, got: %s", got)
			}
		})
	}
}

func TestValidTraceID(t *testing.T) {
	assert.True(t, validTraceID("abc-DEF_123.x"))
	assert.True(t, validTraceID(strings.Repeat("z", maxTraceIDLength)))

	assert.False(t, validTraceID(""))
	assert.False(t, validTraceID(strings.Repeat("z", maxTraceIDLength+1)))
	assert.False(t, validTraceID("id/with/slash"))
	assert.False(t, validTraceID("ünïcode"))
}

func TestWithTraceID_GeneratesUniqueUUIDs(t *testing.T) {
	h := newTraceHandler()
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		id := executeWithTraceID(h, "").Header().Get(traceIDHeader)

		_, duplicate := seen[id]
		require.False(t, duplicate, "duplicate trace ID generated: %s", id)
		seen[id] = struct{}{}
	}
}

// ---- Context logger ----

func TestWithTraceID_LoggerCarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	h := &Handler{logger: &logger.Logger{Logger: zerolog.New(&buf)}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromRequest(r).Info().Msg("inside")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(traceIDHeader, "trace-context-test")
	rr := httptest.NewRecorder()
	h.withTraceID(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Contains(t, buf.String(), `"trace_id":"trace-context-test"`)
}

func TestWithTraceID_ParentLoggerUntouched(t *testing.T) {
	var buf bytes.Buffer
	parent := &logger.Logger{Logger: zerolog.New(&buf)}
	h := &Handler{logger: parent}

	executeWithTraceID(h, "first-request")
	buf.Reset()

	parent.Info().Msg("after")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithTraceID_ConcurrentRequests(t *testing.T) {
	h := newTraceHandler()

	const n = 50
	done := make(chan string, n)

	for i := 0; i < n; i++ {
		go func() {
			done <- executeWithTraceID(h, "").Header().Get(traceIDHeader)
		}()
	}

	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		id := <-done
		require.NotEmpty(t, id)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, n, "all generated trace IDs should be unique")
}

func TestWithTraceID_OriginalRequestNotMutated(t *testing.T) {
	h := newTraceHandler()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	originalCtx := req.Context()

	h.withTraceID(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, originalCtx, req.Context())
}
