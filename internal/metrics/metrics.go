package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReservationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dormhub_reservation_transitions_total",
		Help: "Reservation status changes by target status.",
	}, []string{"to"})

	EscrowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dormhub_escrow_transitions_total",
		Help: "Escrow status changes by target status.",
	}, []string{"to"})

	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dormhub_bookings_created_total",
		Help: "Bookings created by payment plan actually used.",
	}, []string{"plan"})

	QuotaDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dormhub_quota_denials_total",
		Help: "Free tier quota denials by kind.",
	}, []string{"kind"})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dormhub_outbox_events_total",
		Help: "Outbox dispatch attempts by result.",
	}, []string{"result"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dormhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records latency labelled with the matched mux route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
