package grpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/internal/interfaces/grpc/services"
	"github.com/turtacn/KeyIP-Substructure/internal/testutil"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

type testEnv struct {
	server *Server
	conn   *grpc.ClientConn
	logs   *observer.ObservedLogs
}

func startServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	lib := testutil.NewMemoryLibrary()
	svc, err := screening.NewService(screening.Config{}, screening.Dependencies{
		Repository: lib,
		Molfiles:   lib,
		Logger:     logging.NewNopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	logger, logs := testutil.NewObservedLogger()
	s := NewServer(config.GRPCConfig{}, append([]Option{WithLogger(logger)}, opts...)...)
	s.RegisterService(&services.SubstructureServiceDesc, services.NewSubstructureService(svc, logger))

	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()
	t.Cleanup(func() {
		s.Stop(context.Background())
		assert.NoError(t, <-done)
	})

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testEnv{server: s, conn: conn, logs: logs}
}

func TestServer_Health(t *testing.T) {
	env := startServer(t)
	client := healthpb.NewHealthClient(env.conn)

	for _, svc := range []string{"", services.SubstructureServiceName} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	}

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown.Service"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.NotEmpty(t, env.server.Addr())
}

func TestServer_MatchWithMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "keyip"}, logging.NewNopLogger())
	require.NoError(t, err)
	env := startServer(t, WithMetrics(prometheus.NewAppMetrics(collector)))
	client := services.NewSubstructureClient(env.conn)

	resp, err := client.Match(context.Background(), &types.MatchRequest{
		Pattern: json.RawMessage(`{"atoms":[{"element":"C"}]}`),
		Target:  types.Target{Molfile: testutil.Molfile(testutil.Chain(3))},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Count)

	_, err = client.Match(context.Background(), &types.MatchRequest{
		Target: types.Target{Molfile: testutil.Molfile(testutil.Chain(3))},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	text := scrape(t, collector)
	assert.Contains(t, text, `keyip_grpc_requests_total{code="OK",method="/keyip.substructure.v1.SubstructureService/Match"} 1`)
	assert.Contains(t, text, `keyip_grpc_requests_total{code="InvalidArgument",method="/keyip.substructure.v1.SubstructureService/Match"} 1`)

	assert.Equal(t, 1, env.logs.FilterMessage("grpc request").FilterLevelExact(zapcore.InfoLevel).Len())
	assert.Equal(t, 1, env.logs.FilterMessage("grpc request").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestServer_SkipsHealthLogging(t *testing.T) {
	env := startServer(t)
	_, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Zero(t, env.logs.FilterMessage("grpc request").Len())
}

func TestServer_StopBeforeServe(t *testing.T) {
	s := NewServer(config.GRPCConfig{Port: 0})
	s.Stop(context.Background())
	assert.Empty(t, s.Addr())
}

func TestServer_DoubleServe(t *testing.T) {
	env := startServer(t)
	_, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	err = env.server.Serve(bufconn.Listen(1024))
	assert.EqualError(t, err, "server already started")
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger, logs := testutil.NewObservedLogger()
	interceptor := recoveryUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Panic"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, 1, logs.FilterMessage("grpc panic recovered").Len())

	resp, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestIsHealthCheck(t *testing.T) {
	assert.True(t, isHealthCheck("/grpc.health.v1.Health/Check"))
	assert.False(t, isHealthCheck("/keyip.substructure.v1.SubstructureService/Match"))
}

func TestWithGracefulTimeout(t *testing.T) {
	s := NewServer(config.GRPCConfig{}, WithGracefulTimeout(time.Second), WithGracefulTimeout(0))
	assert.Equal(t, time.Second, s.opts.gracefulTimeout)
}

func scrape(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

//Personal.AI order the ending
