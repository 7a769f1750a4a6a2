package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authapp "probaho-server/internal/application/auth"
	historyapp "probaho-server/internal/application/history"
	"probaho-server/internal/application/ledger"
	paymentapp "probaho-server/internal/application/payment"
	"probaho-server/internal/infrastructure/config"
	"probaho-server/internal/infrastructure/messaging"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence"
	redisstore "probaho-server/internal/infrastructure/persistence/redis"
	grpcserver "probaho-server/internal/presentation/grpc"
	"probaho-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	zapLogger, err := otelinfra.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger := otelinfra.NewLoggerWithZap(otelinfra.Tracer("probaho-server"), zapLogger)
	defer func() { _ = logger.Sync() }()

	metrics, err := otelinfra.NewMetrics("probaho-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error(context.Background(), "Server exited with error", err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) error {
	ctx := context.Background()

	// ストレージとイベント配信で共有するRedisクライアント
	var redisClient goredis.UniversalClient
	if cfg.Storage.Driver == "redis" || cfg.Events.Driver == "redis" || cfg.Events.Driver == "all" {
		client := redisstore.NewClient(&cfg.Redis)
		defer client.Close()
		redisClient = client
	}

	backend, err := persistence.Open(ctx, cfg, redisClient, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error(ctx, "Failed to close storage", err, nil)
		}
	}()
	logger.Info(ctx, "Storage opened", map[string]interface{}{
		"driver": backend.Driver,
	})

	publisher, closePublisher, err := messaging.Open(cfg, redisClient, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to open event publisher: %w", err)
	}
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Error(ctx, "Failed to close event publisher", err, nil)
		}
	}()

	loc, err := cfg.Ledger.Location()
	if err != nil {
		return err
	}

	// アプリケーションサービスの初期化
	ledgers := ledger.NewRegistry(
		backend.Storage,
		logger,
		metrics,
		ledger.WithLocation(loc),
		ledger.WithPublisher(publisher),
	)
	paymentService, err := paymentapp.NewService(cfg, ledgers, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create payment service: %w", err)
	}
	historyService := historyapp.NewHistoryApplicationService(historyapp.FromRegistry(ledgers), logger, metrics)
	authService := authapp.NewAuthApplicationService(&cfg.JWT, logger)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Ledgers:  ledgers,
		Payment:  paymentService,
		History:  historyService,
		Auth:     authService,
		Location: loc,
	})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, backend.Storage)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 2)

	address := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address": address,
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("REST API server: %w", err)
		}
	}()

	go func() {
		if err := grpcSrv.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info(ctx, "Shutting down servers", map[string]interface{}{
			"signal": sig.String(),
		})
	case serveErr = <-errCh:
		logger.Error(ctx, "Server failed, shutting down", serveErr, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(ctx, "Servers stopped", nil)
	return serveErr
}
