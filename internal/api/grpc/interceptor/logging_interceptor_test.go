package interceptor

import (
	"context"
	"testing"

	"dormhub-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestUnary_PropagatesRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "abc"))
	var seen string
	_, err := NewLoggingInterceptor().Unary()(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = logger.RequestID(ctx)
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "abc", seen)
}

func TestUnary_RecoversPanics(t *testing.T) {
	resp, err := NewLoggingInterceptor().Unary()(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}
