// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-multi-account/internal/mock"
	"github.com/MKhiriev/go-multi-account/models"
)

func newTestSwitchLogger(t *testing.T, ctrl *gomock.Controller) (*switchLogger, *mock.MockServerAdapter, *bytes.Buffer, context.Context) {
	t.Helper()
	serverAdapter := mock.NewMockServerAdapter(ctrl)
	l := NewSwitchLogger(serverAdapter).(*switchLogger)

	clock := vaultNow
	l.now = func() time.Time {
		clock = clock.Add(100 * time.Millisecond)
		return clock
	}

	buf := &bytes.Buffer{}
	ctx := zerolog.New(buf).WithContext(context.Background())
	return l, serverAdapter, buf, ctx
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

// lineWithMessage returns the first record logged with message.
func lineWithMessage(t *testing.T, buf *bytes.Buffer, message string) map[string]any {
	t.Helper()
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &out))
		if out["message"] == message {
			return out
		}
	}
	t.Fatalf("no record with message %q in %s", message, buf.String())
	return nil
}

func TestSwitchLogger_SuccessForwarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, serverAdapter, buf, ctx := newTestSwitchLogger(t, ctrl)

	startedAt := l.SwitchAttempt(ctx, "70")
	assert.Equal(t, "switch_attempt", lastLine(t, buf)["event"])

	reloads := 1
	serverAdapter.EXPECT().SendTelemetry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event models.SwitchEvent) error {
			assert.Equal(t, EventSwitchSuccess, event.Event)
			assert.Equal(t, "70", event.AccountID)
			assert.True(t, event.Success)
			require.NotNil(t, event.LatencyMs)
			assert.Positive(t, *event.LatencyMs)
			require.NotNil(t, event.ReloadCount)
			assert.Equal(t, 1, *event.ReloadCount)
			return nil
		})

	l.SwitchSuccess(ctx, "70", startedAt, &reloads)

	line := lastLine(t, buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "[MultiAccount] switch_success", line["message"])
	assert.EqualValues(t, 1, line["reload_count"])
}

// Ошибка отправки телеметрии не выходит наружу.
func TestSwitchLogger_FailureForwardingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, serverAdapter, buf, ctx := newTestSwitchLogger(t, ctrl)

	serverAdapter.EXPECT().SendTelemetry(gomock.Any(), gomock.Any()).Return(errors.New("offline"))

	l.SwitchFailure(ctx, "70", "verify failed", StageVerifying, time.Time{})

	line := lineWithMessage(t, buf, "[MultiAccount] switch_failure")
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "VERIFYING", line["stage"])
	assert.Equal(t, "verify failed", line["reason"])
	assert.NotContains(t, line, "latency_ms")

	forwarding := lastLine(t, buf)
	assert.Equal(t, "debug", forwarding["level"])
	assert.Equal(t, "telemetry forwarding failed", forwarding["message"])
	assert.Equal(t, "offline", forwarding["error"])
}

func TestSwitchLogger_LocalEventsNotForwarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l, _, buf, ctx := newTestSwitchLogger(t, ctrl)

	l.Reload(ctx, 2)
	assert.EqualValues(t, 2, lastLine(t, buf)["reload_count"])

	l.CacheClear(ctx, false, "locked")
	assert.Equal(t, "cache_clear", lastLine(t, buf)["event"])

	l.CSRFRefresh(ctx, "EXCHANGING", true, "")
	assert.Equal(t, "csrf_refresh", lastLine(t, buf)["event"])
}

func TestSwitchLogger_NilAdapter(t *testing.T) {
	l := NewSwitchLogger(nil)

	assert.NotPanics(t, func() {
		l.SwitchSuccess(context.Background(), "70", time.Now(), nil)
		l.SwitchFailure(context.Background(), "70", "x", StageFailed, time.Now())
	})
}
