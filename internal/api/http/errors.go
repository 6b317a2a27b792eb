package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
)

type errorBody struct {
	Error           string            `json:"error"`
	UpgradeRequired bool              `json:"upgrade_required,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps domain error kinds onto HTTP status codes. The escrow
// flavour of an invalid transition is covered by ErrInvalidTransition.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDuplicateReservation),
		errors.Is(err, domain.ErrDuplicateBooking):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLimitReached):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrPropertyUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	switch {
	case status == http.StatusPaymentRequired:
		body.UpgradeRequired = true
	case status == http.StatusInternalServerError:
		// Internal details, including InvalidConfiguration, stay in the logs.
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "method", r.Method, "error", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, msg string, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Fields: fields})
}
