package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

func TestUnaryErrorInterceptor(t *testing.T) {
	intercept := unaryErrorInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/backlog.v1/Process"}

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{"board not found", fmt.Errorf("extract: %w", common.BoardNotFoundError("board-999")), codes.NotFound, "Board not found: board-999"},
		{"schema violation", common.SchemaViolationError([]common.Issue{{Path: "epics", Message: "Required"}}), codes.InvalidArgument, "epics: Required"},
		{"generation unavailable", common.GenerationUnavailableError("no key"), codes.Unavailable, "no key"},
		{"untagged", errors.New("boom"), codes.Internal, "boom"},
		{"existing status", status.Error(codes.PermissionDenied, "denied"), codes.PermissionDenied, "denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
				return nil, tt.err
			})
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Contains(t, st.Message(), tt.message)
		})
	}

	resp, err := intercept(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestGRPCServer_Health(t *testing.T) {
	srv, healthServer := NewGRPCServer(nil)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := grpc_health_v1.NewHealthClient(conn)
	resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	// Unknown services fail through the interceptor with their status intact.
	_, err = client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "backlog.Unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	healthServer.Shutdown()
	resp, err = client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}
