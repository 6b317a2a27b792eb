package http

import (
	"net/http"
	"strings"

	"dormhub-backend/internal/config"
	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Handler panicked", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type authMiddleware struct {
	tokenManager security.TokenManager
}

// Handler authenticates every route whose name is not public. Runs after
// route matching so the route name is known.
func (m *authMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		if config.GetSecurityLevel(name) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			logger.DebugContext(r.Context(), "Token rejected", "route", name, "error", err)
			writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		if claims.Type != security.TokenTypeAccess {
			writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		caller, err := claims.Caller()
		if err != nil {
			writeError(w, r, domain.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:]), true
	}
	return "", false
}

// callerScope namespaces idempotency keys by user.
func callerScope(r *http.Request) string {
	if c := CallerFromContext(r.Context()); c != nil {
		return c.UserID.String()
	}
	return "anonymous"
}
