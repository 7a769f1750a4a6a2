package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/presentation/grpc/interceptor"
)

const (
	healthCheckInterval = 10 * time.Second
	healthCheckTimeout  = 2 * time.Second
)

// Server gRPCサーバー
// 提供するのはストレージの状態を返すヘルスサービスのみ
type Server struct {
	server   *grpc.Server
	health   *health.Server
	store    storage.Storage
	logger   *otelinfra.Logger
	listener net.Listener
	port     int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewServer 新しいgRPCサーバーを作成
func NewServer(cfg *config.Config, logger *otelinfra.Logger, store storage.Storage) (*Server, error) {
	address := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewServerWithListener(cfg, logger, store, listener, cfg.Server.GRPCPort), nil
}

// NewServerWithListener リスナーを指定してgRPCサーバーを作成（テスト用）
func NewServerWithListener(
	cfg *config.Config,
	logger *otelinfra.Logger,
	store storage.Storage,
	listener net.Listener,
	port int,
) *Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptor.LoggingInterceptor(logger),
			interceptor.APIKeyInterceptor(&cfg.Admin, logger),
		),
		grpc.ChainStreamInterceptor(
			interceptor.APIKeyStreamInterceptor(&cfg.Admin, logger),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// リフレクションを有効化（開発環境用）
	if cfg.Environment == "development" {
		reflection.Register(grpcServer)
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		store:    store,
		logger:   logger,
		listener: listener,
		port:     port,
		stopCh:   make(chan struct{}),
	}
}

// CheckHealth ストレージに問い合わせてヘルスステータスを更新する
func (s *Server) CheckHealth(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.HealthCheck(ctx); err != nil {
		s.logger.Warn(ctx, "Storage health check failed", map[string]interface{}{
			"error": err.Error(),
		})
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	return status
}

// watchHealth 停止までヘルスステータスを定期的に更新する
func (s *Server) watchHealth() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.CheckHealth(context.Background())
		}
	}
}

// Start サーバーを起動
func (s *Server) Start() error {
	ctx := context.Background()
	s.CheckHealth(ctx)
	go s.watchHealth()

	s.logger.Info(ctx, "gRPC server starting", map[string]interface{}{
		"port": s.port,
	})
	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop サーバーを停止
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "Stopping gRPC server", nil)
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.health.Shutdown()
	})

	// グレースフルシャットダウン
	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info(ctx, "gRPC server stopped", nil)
		return nil
	case <-ctx.Done():
		// タイムアウトした場合は強制停止
		s.logger.Warn(ctx, "gRPC server shutdown timeout, forcing stop", nil)
		s.server.Stop()
		return ctx.Err()
	}
}

// Port サーバーのポート番号を返す
func (s *Server) Port() int {
	return s.port
}
