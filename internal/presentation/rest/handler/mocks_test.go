package handler

import (
	"context"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	historyapp "probaho-server/internal/application/history"
	"probaho-server/internal/application/ledger"
	paymentapp "probaho-server/internal/application/payment"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
	restmiddleware "probaho-server/internal/presentation/rest/middleware"
)

// MockPaymentService モック決済サービス
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateSession(ctx context.Context, req *paymentapp.CreateSessionRequest) (*paymentapp.CreateSessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.CreateSessionResponse), args.Error(1)
}

func (m *MockPaymentService) VerifyGateway(ctx context.Context, req *paymentapp.GatewayRequest) (*paymentapp.GatewayPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.GatewayPage), args.Error(1)
}

func (m *MockPaymentService) ConfirmPayment(ctx context.Context, req *paymentapp.ConfirmPaymentRequest) (*paymentapp.ConfirmPaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.ConfirmPaymentResponse), args.Error(1)
}

func (m *MockPaymentService) RecordCallback(ctx context.Context, req *paymentapp.CallbackRequest) (*paymentapp.CallbackResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.CallbackResponse), args.Error(1)
}

// MockHistoryService モック履歴サービス
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetTransactionHistory(ctx context.Context, req *historyapp.GetTransactionHistoryRequest) (*historyapp.GetTransactionHistoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*historyapp.GetTransactionHistoryResponse), args.Error(1)
}

func (m *MockHistoryService) GetOverview(ctx context.Context, userID string) (*historyapp.Overview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*historyapp.Overview), args.Error(1)
}

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil)
}

// newTestRegistry メモリストア上の台帳
func newTestRegistry() *ledger.Registry {
	return ledger.NewRegistry(memory.NewStore(), newTestLogger(), nil, ledger.WithLocation(time.UTC))
}

func newTestPages(t *testing.T) *Pages {
	t.Helper()
	pages, err := NewPages()
	require.NoError(t, err)
	return pages
}

// newTestEcho エラーハンドリングミドルウェア付きのEcho
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(newTestLogger()))
	return e
}

// asUser JWTミドルウェアの代わりにユーザーIDを設定する
func asUser(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(restmiddleware.UserIDKey, userID)
			return next(c)
		}
	}
}
