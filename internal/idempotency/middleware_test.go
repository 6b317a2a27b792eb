package idempotency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]*Record
	err     error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]*Record{}}
}

func (m *memStore) Acquire(_ context.Context, key string, _ time.Duration) (State, *Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, nil, m.err
	}
	rec, ok := m.entries[key]
	if !ok {
		m.entries[key] = nil
		return StateAcquired, nil, nil
	}
	if rec == nil {
		return StateInFlight, nil, nil
	}
	return StateDone, rec, nil
}

func (m *memStore) Complete(_ context.Context, key string, rec Record, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &rec
	return nil
}

func (m *memStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func fixedScope(*http.Request) string { return "user-1" }

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"b-1"}`))
	})
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_ReplaysFirstResponse(t *testing.T) {
	calls := 0
	h := Middleware(newMemStore(), time.Hour, fixedScope)(countingHandler(&calls, http.StatusCreated))

	first := post(h, "abc")
	second := post(h, "abc")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestMiddleware_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	h := Middleware(newMemStore(), time.Hour, fixedScope)(countingHandler(&calls, http.StatusCreated))

	post(h, "")
	post(h, "")
	assert.Equal(t, 2, calls)
}

func TestMiddleware_InFlightConflict(t *testing.T) {
	store := newMemStore()
	store.entries["user-1:POST:/api/v1/bookings:abc"] = nil
	calls := 0
	h := Middleware(store, time.Hour, fixedScope)(countingHandler(&calls, http.StatusCreated))

	rec := post(h, "abc")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, calls)
}

func TestMiddleware_ServerErrorReleasesKey(t *testing.T) {
	store := newMemStore()
	calls := 0
	h := Middleware(store, time.Hour, fixedScope)(countingHandler(&calls, http.StatusInternalServerError))

	post(h, "abc")
	post(h, "abc")
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.entries)
}

func TestMiddleware_PanicReleasesKey(t *testing.T) {
	store := newMemStore()
	calls := 0
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("handler blew up")
		}
		w.WriteHeader(http.StatusCreated)
	})
	recovering := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recover() != nil {
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
	h := recovering(Middleware(store, time.Hour, fixedScope)(boom))

	first := post(h, "k-panic")
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	retry := post(h, "k-panic")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, 2, calls)
}

func TestMiddleware_ClientErrorIsStored(t *testing.T) {
	store := newMemStore()
	calls := 0
	h := Middleware(store, time.Hour, fixedScope)(countingHandler(&calls, http.StatusPaymentRequired))

	post(h, "abc")
	rec := post(h, "abc")
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestMiddleware_StoreDownFailsOpen(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("dial tcp: connection refused")
	calls := 0
	h := Middleware(store, time.Hour, fixedScope)(countingHandler(&calls, http.StatusCreated))

	rec := post(h, "abc")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestMiddleware_KeysAreScopedPerCaller(t *testing.T) {
	store := newMemStore()
	calls := 0
	caller := "user-1"
	scope := func(*http.Request) string { return caller }
	h := Middleware(store, time.Hour, scope)(countingHandler(&calls, http.StatusCreated))

	post(h, "abc")
	caller = "user-2"
	post(h, "abc")
	require.Equal(t, 2, calls)
}

func TestDecode(t *testing.T) {
	state, rec, err := decode(inFlightMarker)
	require.NoError(t, err)
	assert.Equal(t, StateInFlight, state)
	assert.Nil(t, rec)

	state, rec, err = decode(`{"status":201,"content_type":"application/json","body":"eyJpZCI6MX0="}`)
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Equal(t, 201, rec.Status)
	assert.Equal(t, `{"id":1}`, string(rec.Body))

	_, _, err = decode("garbage")
	assert.Error(t, err)
}
