package http

import (
	"net/http"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"

	"github.com/google/uuid"
)

type reservationHandler struct {
	svc service.ReservationService
}

func (h *reservationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	res, err := h.svc.CreateReservation(r.Context(), CallerFromContext(r.Context()), uuid.MustParse(req.PropertyID), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *reservationHandler) list(w http.ResponseWriter, r *http.Request) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListReservations(r.Context(), CallerFromContext(r.Context()), q.Status, q.Page, q.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Reservation]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func (h *reservationHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetReservation(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *reservationHandler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.ApproveReservation(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *reservationHandler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	res, err := h.svc.RejectReservation(r.Context(), CallerFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *reservationHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.CancelReservation(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
