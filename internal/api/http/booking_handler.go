package http

import (
	"net/http"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"
)

type bookingHandler struct {
	svc service.BookingService
}

func (h *bookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	in, err := req.toService()
	if err != nil {
		writeBadRequest(w, "validation failed", nil)
		return
	}
	b, err := h.svc.CreateBooking(r.Context(), CallerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *bookingHandler) list(w http.ResponseWriter, r *http.Request) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListBookings(r.Context(), CallerFromContext(r.Context()), q.Status, q.Page, q.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Booking]{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func (h *bookingHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBooking(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *bookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	b, err := h.svc.CancelBooking(r.Context(), CallerFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *bookingHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.CompleteBooking(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
