package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

// NewGRPCServer builds the daemon's gRPC server with the health service and
// reflection registered. Handler errors leave the server as gRPC statuses
// mapped from their error kind.
func NewGRPCServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(unaryErrorInterceptor(logger)),
		grpc.StreamInterceptor(streamErrorInterceptor(logger)),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	// empty service name is overall server health
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(srv)
	return srv, healthServer
}

func unaryErrorInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			err = common.ToStatus(err)
			logger.Warn("grpc.request.failed",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"elapsed_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
		return resp, err
	}
}

func streamErrorInterceptor(logger *slog.Logger) grpc.StreamServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		if err != nil {
			err = common.ToStatus(err)
			logger.Warn("grpc.stream.failed", "method", info.FullMethod, "code", status.Code(err).String(), "error", err)
		}
		return err
	}
}
