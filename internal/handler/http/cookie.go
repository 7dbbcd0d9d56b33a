// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-multi-account/models"
)

const (
	sessionCookieName = "_multi_account_session"

	// csrfHeader carries a fresh CSRF token after the session owner changes.
	csrfHeader = "X-CSRF-Token"
)

// setSessionCookie signs the browser in as token's user.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token models.SessionToken) {
	cookie := &http.Cookie{
		Name:     h.cookie.name,
		Value:    token.SignedString,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token.ExpiresAt != nil {
		cookie.Expires = token.ExpiresAt.Time
	} else if h.cookie.maxAge > 0 {
		cookie.MaxAge = int(h.cookie.maxAge / time.Second)
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// signIn creates a web session for userID, sets the cookie and rotates the
// CSRF token.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	token, err := h.services.SessionService.CreateSession(r.Context(), userID)
	if err != nil {
		return err
	}

	h.setSessionCookie(w, token)
	w.Header().Set(csrfHeader, h.ids.GenerateRandom())
	return nil
}
