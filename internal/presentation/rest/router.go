package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authapp "probaho-server/internal/application/auth"
	historyapp "probaho-server/internal/application/history"
	"probaho-server/internal/application/ledger"
	paymentapp "probaho-server/internal/application/payment"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/presentation/rest/handler"
	restmiddleware "probaho-server/internal/presentation/rest/middleware"
)

const (
	bodyLimit          = "1M"
	healthCheckTimeout = 2 * time.Second
)

// Services ルーターが使うアプリケーションサービス
type Services struct {
	Ledgers  *ledger.Registry
	Payment  *paymentapp.Service
	History  *historyapp.HistoryApplicationService
	Auth     *authapp.AuthApplicationService
	// Location 画面に表示する日時のタイムゾーン
	Location *time.Location
}

// Router REST APIルーター
type Router struct {
	echo *echo.Echo
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
) (*Router, error) {
	pages, err := handler.NewPages()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Echoのデフォルトエラーハンドラーを無効化（エラーハンドリングミドルウェアで処理）
	e.HTTPErrorHandler = func(err error, c echo.Context) {}

	setupMiddleware(e, logger, metrics)
	setupRoutes(e, cfg, logger, services, pages)
	SetupSwagger(e)

	return &Router{echo: e}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, restmiddleware.APIKeyHeader},
	}))

	e.Use(restmiddleware.RequestIDMiddleware())
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(logger))
	if metrics != nil {
		e.Use(restmiddleware.MetricsMiddleware(metrics))
	}
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	services Services,
	pages *handler.Pages,
) {
	paymentHandler := handler.NewPaymentHandler(services.Payment, pages)
	pageHandler := handler.NewPageHandler(services.History, services.Ledgers, pages, cfg.Ledger.DefaultUserID, services.Location)
	ledgerHandler := handler.NewLedgerHandler(services.Ledgers)
	historyHandler := handler.NewHistoryHandler(services.History)
	authHandler := handler.NewAuthHandler(services.Auth)
	eventsHandler := handler.NewEventsHandler(services.Ledgers, logger)
	adminHandler := handler.NewAdminHandler(services.Ledgers)

	// モック決済フロー（ブラウザから直接開くため認証なし）
	e.POST("/api/payment/create", paymentHandler.CreateSession)
	e.GET("/api/payment/mock-gateway", paymentHandler.MockGateway)
	e.GET("/add-money/confirm", paymentHandler.Confirm)
	e.GET("/add-money/callback", paymentHandler.Callback)
	e.GET("/add-money", pageHandler.AddMoney)
	e.GET("/history", pageHandler.History)

	e.GET("/health", healthCheck(services.Ledgers))

	api := e.Group("/api/v1")
	api.POST("/auth/token", authHandler.GenerateToken)

	authGroup := api.Group("", restmiddleware.AuthMiddleware(services.Auth, logger))
	authGroup.GET("/wallet", ledgerHandler.GetWallet)
	authGroup.PUT("/wallet", ledgerHandler.PutWallet)
	authGroup.GET("/transactions", historyHandler.GetTransactionHistory)
	authGroup.POST("/transactions", ledgerHandler.AddTransaction)
	authGroup.GET("/stats/daily", ledgerHandler.GetDailyStats)
	authGroup.POST("/add-money", ledgerHandler.AddMoney)
	authGroup.POST("/send-money", ledgerHandler.SendMoney)
	authGroup.GET("/settings", ledgerHandler.GetSettings)
	authGroup.PUT("/settings", ledgerHandler.PutSettings)
	authGroup.GET("/user", ledgerHandler.GetUser)
	authGroup.PUT("/user", ledgerHandler.PutUser)
	authGroup.DELETE("/data", ledgerHandler.ClearData)
	authGroup.GET("/events", eventsHandler.Stream)

	admin := e.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.Admin, logger))
	admin.GET("/users/:userId/wallet", adminHandler.GetUserWallet)
	admin.GET("/users/:userId/transactions", historyHandler.GetTransactionHistoryAdmin)
	admin.DELETE("/users/:userId/data", adminHandler.ClearUserData)
}

// healthCheck ストレージへの疎通を確認する
func healthCheck(ledgers *ledger.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()

		if err := ledgers.Storage().HealthCheck(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Handler テストや組み込み用にhttp.Handlerを返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
