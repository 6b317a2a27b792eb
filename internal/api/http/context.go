package http

import (
	"context"

	"dormhub-backend/internal/domain"
)

type callerKey struct{}

func withCaller(ctx context.Context, c *domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the identity set by the auth middleware, or nil
// on public routes.
func CallerFromContext(ctx context.Context) *domain.Caller {
	c, _ := ctx.Value(callerKey{}).(*domain.Caller)
	return c
}
