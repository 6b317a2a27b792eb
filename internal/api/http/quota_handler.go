package http

import (
	"net/http"

	"dormhub-backend/internal/service"
)

type quotaHandler struct {
	svc service.QuotaService
}

func (h *quotaHandler) get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetQuota(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *quotaHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathID(w, r, "propertyId")
	if !ok {
		return
	}
	if err := h.svc.AddFavorite(r.Context(), CallerFromContext(r.Context()), propertyID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *quotaHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := pathID(w, r, "propertyId")
	if !ok {
		return
	}
	if err := h.svc.RemoveFavorite(r.Context(), CallerFromContext(r.Context()), propertyID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
