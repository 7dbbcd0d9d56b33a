// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Handle("/metrics", h.metrics.Handler())
	router.Get("/api/version/", h.getServerVersion)

	// web sign-in surface
	router.Group(func(r chi.Router) {
		r.Use(h.identify)

		r.Get("/multi_accounts/entry", h.entry)
		r.Get("/multi_accounts/callback", h.callback)
		r.Post("/multi_accounts/session/restore", h.restoreSession)
		r.Get("/oauth/authorize/force_login_check", h.forceLoginCheck)
	})

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(withGZip)

		// routes without authorization, throttled per IP
		api.Group(func(r chi.Router) {
			r.Use(h.withIPRateLimit)

			r.Post("/multi_accounts/consume", h.consume)
			r.Post("/multi_accounts/session/refresh", h.refreshSession)
		})

		api.Group(func(r chi.Router) {
			r.Use(h.identify)

			r.Post("/multi_accounts/telemetry", h.telemetry)
			r.Get("/accounts/{id}", h.account)
		})

		// routes with bearer authorization
		api.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Post("/multi_accounts/refresh_token", h.issueRefreshToken)
			r.Get("/multi_accounts/metrics", h.metricsSummary)
			r.Get("/accounts/verify_credentials", h.verifyCredentials)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
