// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/utils"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) verifyCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, service.ErrUnauthenticated)
		return
	}

	owner, err := h.services.OwnerResolver.Resolve(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.NewAccountView(owner.Account), http.StatusOK)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		h.writeErrorStatus(w, r, service.ErrAccountNotFound, http.StatusNotFound)
		return
	}

	account, err := h.services.OwnerResolver.Account(r.Context(), accountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.NewAccountView(account), http.StatusOK)
}
