package http

import (
	"net/http"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"
)

type escrowHandler struct {
	svc service.EscrowService
}

func (h *escrowHandler) list(w http.ResponseWriter, r *http.Request) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListEscrows(r.Context(), CallerFromContext(r.Context()), q.Status, q.Page, q.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.EscrowTransaction{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.EscrowTransaction]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func (h *escrowHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.GetEscrow(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *escrowHandler) accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.AcceptEscrow(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *escrowHandler) decline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	e, err := h.svc.DeclineEscrow(r.Context(), CallerFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
