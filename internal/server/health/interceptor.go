package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// logCalls records every unary call with its status code. Health checks are
// frequent, so successful calls go to debug.
func (s *GRPCServer) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "grpc call", args...)
	}
	return resp, err
}
