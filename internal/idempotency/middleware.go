package idempotency

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"dormhub-backend/internal/logger"
)

const HeaderKey = "Idempotency-Key"

// maxKeyLength bounds client supplied keys before they reach Redis.
const maxKeyLength = 255

type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware replays the first response for a repeated Idempotency-Key.
// scope namespaces keys per caller so two users never share a key; requests
// without the header pass straight through. Server errors and panics release
// the key so the client can retry. When the store is unreachable the request
// proceeds without protection.
func Middleware(store Store, ttl time.Duration, scope func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(HeaderKey)
			if clientKey == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxKeyLength {
				http.Error(w, `{"error":"idempotency key too long"}`, http.StatusBadRequest)
				return
			}
			key := scope(r) + ":" + r.Method + ":" + r.URL.Path + ":" + clientKey

			state, rec, err := store.Acquire(r.Context(), key, ttl)
			if err != nil {
				logger.WarnContext(r.Context(), "Idempotency store unavailable, proceeding unprotected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			switch state {
			case StateInFlight:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":"a request with this idempotency key is in progress"}`))
				return
			case StateDone:
				if rec.ContentType != "" {
					w.Header().Set("Content-Type", rec.ContentType)
				}
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(rec.Status)
				_, _ = w.Write(rec.Body)
				return
			}

			rw := &recorder{ResponseWriter: w}
			defer func() {
				if p := recover(); p != nil {
					release(r, store, key)
					panic(p)
				}
			}()
			next.ServeHTTP(rw, r)

			if rw.status == 0 || rw.status >= http.StatusInternalServerError {
				release(r, store, key)
				return
			}
			ctx, cancel := detached(r)
			defer cancel()
			stored := Record{
				Status:      rw.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rw.buf.Bytes(),
			}
			if err := store.Complete(ctx, key, stored, ttl); err != nil {
				logger.WarnContext(r.Context(), "Failed to store idempotent response", "error", err)
			}
		})
	}
}

// detached outlives the request: the client may be gone but the outcome must
// still be recorded.
func detached(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
}

func release(r *http.Request, store Store, key string) {
	ctx, cancel := detached(r)
	defer cancel()
	if err := store.Release(ctx, key); err != nil {
		logger.WarnContext(r.Context(), "Failed to release idempotency key", "error", err)
	}
}
