package http

import (
	"context"
	"net/http"
	"time"

	"dormhub-backend/internal/idempotency"
	"dormhub-backend/internal/metrics"
	"dormhub-backend/internal/security"
	"dormhub-backend/internal/service"

	"github.com/gorilla/mux"
)

// Deps are the collaborators the HTTP API is built from. Idempotency and
// Health are optional.
type Deps struct {
	Reservations   service.ReservationService
	Bookings       service.BookingService
	Escrows        service.EscrowService
	Quota          service.QuotaService
	TokenManager   security.TokenManager
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	Health         func(ctx context.Context) error
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, recoverMiddleware, metrics.Middleware)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/healthz", healthHandler(d.Health)).Methods(http.MethodGet).Name("healthz")

	api := r.PathPrefix("/api/v1").Subrouter()
	auth := &authMiddleware{tokenManager: d.TokenManager}
	api.Use(auth.Handler)

	once := func(h http.HandlerFunc) http.Handler {
		return idempotency.Middleware(d.Idempotency, d.IdempotencyTTL, callerScope)(h)
	}

	rh := &reservationHandler{svc: d.Reservations}
	api.Handle("/reservations", once(rh.create)).Methods(http.MethodPost).Name("reservations.create")
	api.HandleFunc("/reservations", rh.list).Methods(http.MethodGet).Name("reservations.list")
	api.HandleFunc("/reservations/{id}", rh.get).Methods(http.MethodGet).Name("reservations.get")
	api.HandleFunc("/reservations/{id}/approve", rh.approve).Methods(http.MethodPost).Name("reservations.approve")
	api.HandleFunc("/reservations/{id}/reject", rh.reject).Methods(http.MethodPost).Name("reservations.reject")
	api.HandleFunc("/reservations/{id}/cancel", rh.cancel).Methods(http.MethodPost).Name("reservations.cancel")

	bh := &bookingHandler{svc: d.Bookings}
	api.Handle("/bookings", once(bh.create)).Methods(http.MethodPost).Name("bookings.create")
	api.HandleFunc("/bookings", bh.list).Methods(http.MethodGet).Name("bookings.list")
	api.HandleFunc("/bookings/{id}", bh.get).Methods(http.MethodGet).Name("bookings.get")
	api.HandleFunc("/bookings/{id}/cancel", bh.cancel).Methods(http.MethodPost).Name("bookings.cancel")
	api.HandleFunc("/bookings/{id}/complete", bh.complete).Methods(http.MethodPost).Name("bookings.complete")

	eh := &escrowHandler{svc: d.Escrows}
	api.HandleFunc("/escrows", eh.list).Methods(http.MethodGet).Name("escrows.list")
	api.HandleFunc("/escrows/{id}", eh.get).Methods(http.MethodGet).Name("escrows.get")
	api.Handle("/escrows/{id}/accept", once(eh.accept)).Methods(http.MethodPost).Name("escrows.accept")
	api.Handle("/escrows/{id}/decline", once(eh.decline)).Methods(http.MethodPost).Name("escrows.decline")

	qh := &quotaHandler{svc: d.Quota}
	api.HandleFunc("/quota", qh.get).Methods(http.MethodGet).Name("quota.get")
	api.HandleFunc("/favorites/{propertyId}", qh.addFavorite).Methods(http.MethodPost).Name("favorites.add")
	api.HandleFunc("/favorites/{propertyId}", qh.removeFavorite).Methods(http.MethodDelete).Name("favorites.remove")

	return r
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
