// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
)

// auth is the bearer credential middleware.
//
// It resolves the "Authorization: Bearer <token>" header through
// [service.TokenAuthenticator], which rejects unknown, revoked and expired
// tokens and records the last use with the client IP. On success the access
// token is stored under [utils.AccessTokenCtxKey] and its resource owner under
// [utils.UserIDCtxKey]. Every rejection is answered with 401.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Debug().Err(ErrEmptyAuthorizationHeader).Send()
			h.writeErrorStatus(w, r, ErrEmptyAuthorizationHeader, http.StatusUnauthorized)
			return
		}

		ctx, err := h.authenticateBearer(r, authHeader)
		if err != nil {
			log.Warn().Err(err).Msg("bearer authentication failed")
			h.writeErrorStatus(w, r, authFailure(err), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identify attaches the caller's identity when there is one and never
// rejects. A bearer header wins over the web sign-in cookie. Anonymous
// callers proceed without [utils.UserIDCtxKey].
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			ctx, err := h.authenticateBearer(r, authHeader)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			log.Debug().Err(err).Msg("ignoring invalid bearer credential")
		}

		if userID, ok := h.sessionUserID(r); ok {
			next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), userID)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticateBearer(r *http.Request, authHeader string) (context.Context, error) {
	tokenString, err := utils.ParseBearerToken(authHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuthorizationHeader, err)
	}

	ctx := r.Context()
	token, err := h.services.TokenAuthenticator.Authenticate(ctx, tokenString, utils.ClientIP(r))
	if err != nil {
		return nil, err
	}

	return utils.WithAccessToken(ctx, token), nil
}

// sessionUserID reads the web sign-in cookie.
func (h *Handler) sessionUserID(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(h.cookie.name)
	if err != nil || cookie.Value == "" {
		return 0, false
	}

	token, err := h.services.SessionService.ParseSession(r.Context(), cookie.Value)
	if err != nil {
		logger.FromRequest(r).Debug().Err(err).Msg("ignoring invalid sign-in cookie")
		return 0, false
	}
	return token.UserID, true
}

// authFailure hides store and database details from the response body.
func authFailure(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAuthorizationHeader):
		return ErrInvalidAuthorizationHeader
	case errors.Is(err, service.ErrAccessTokenInvalid):
		return service.ErrAccessTokenInvalid
	default:
		return service.ErrUnauthenticated
	}
}
