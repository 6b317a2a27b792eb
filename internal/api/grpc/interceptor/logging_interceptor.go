package interceptor

import (
	"context"
	"time"

	"dormhub-backend/internal/logger"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type LoggingInterceptor struct{}

func NewLoggingInterceptor() *LoggingInterceptor {
	return &LoggingInterceptor{}
}

// Unary returns a server interceptor that tags the call with a request id,
// logs its outcome and turns panics into Internal errors.
func (i *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		ctx = logger.ContextWithRequestID(ctx, requestID(ctx))
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "gRPC handler panicked", "method", info.FullMethod, "panic", rec)
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			if code == codes.OK {
				logger.DebugContext(ctx, "gRPC call", "method", info.FullMethod, "duration", time.Since(start))
			} else {
				logger.WarnContext(ctx, "gRPC call failed", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
			}
		}()

		return handler(ctx, req)
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}
