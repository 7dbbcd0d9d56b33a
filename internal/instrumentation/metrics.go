// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package instrumentation exposes the multi-account counters and latency
// histograms in the Prometheus format.
package instrumentation

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "multi_account"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	switchTotal     *prometheus.CounterVec
	switchDuration  *prometheus.HistogramVec
	consumeTotal    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Refresh credential exchanges by outcome and reason.",
		}, []string{"outcome", "reason"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Refresh credential exchange latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		switchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "switch_total",
			Help:      "Client reported account switches by outcome.",
		}, []string{"outcome"}),
		switchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "switch_duration_seconds",
			Help:      "Client reported account switch latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"outcome"}),
		consumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consume_total",
			Help:      "Authorization code consumptions by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.refreshTotal,
		m.refreshDuration,
		m.switchTotal,
		m.switchDuration,
		m.consumeTotal,
		m.httpRequests,
	)

	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordRefresh(success bool, reason string, d time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeOf(success)
	m.refreshTotal.WithLabelValues(outcome, reason).Inc()
	m.refreshDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordSwitch(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeOf(success)
	m.switchTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.switchDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) RecordConsume(success bool) {
	if m == nil {
		return
	}
	m.consumeTotal.WithLabelValues(outcomeOf(success)).Inc()
}

func (m *Metrics) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

func outcomeOf(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
