package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	authapp "probaho-server/internal/application/auth"
	historyapp "probaho-server/internal/application/history"
	"probaho-server/internal/application/ledger"
	paymentapp "probaho-server/internal/application/payment"
	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
)

const testAdminKey = "test-admin-key"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Payment: config.PaymentConfig{
			Secret:  config.DefaultPaymentSecret,
			BaseURL: config.DefaultBaseURL,
		},
		Ledger: config.LedgerConfig{DefaultUserID: "1"},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Expiration: time.Hour,
			Issuer:     "probaho-test",
		},
		Admin: config.AdminAPIConfig{
			Enabled: true,
			APIKey:  testAdminKey,
		},
		Environment: "test",
	}
}

func setupTestRouterWithStore(t *testing.T, store storage.Storage) (*Router, *ledger.Registry) {
	t.Helper()

	cfg := testConfig()
	logger := otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil)
	registry := ledger.NewRegistry(store, logger, nil, ledger.WithLocation(time.UTC))

	paymentService, err := paymentapp.NewService(cfg, registry, logger, nil)
	require.NoError(t, err)

	router, err := NewRouter(cfg, logger, nil, Services{
		Ledgers:  registry,
		Payment:  paymentService,
		History:  historyapp.NewHistoryApplicationService(historyapp.FromRegistry(registry), logger, nil),
		Auth:     authapp.NewAuthApplicationService(&cfg.JWT, logger),
		Location: time.UTC,
	})
	require.NoError(t, err)
	return router, registry
}

func setupTestRouter(t *testing.T) (*Router, *ledger.Registry) {
	t.Helper()
	return setupTestRouterWithStore(t, memory.NewStore())
}

func do(router *Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, router *Router, userID string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"user_id":"`+userID+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["token"].(string)
}

// unhealthyStore HealthCheckだけ失敗するストレージ
type unhealthyStore struct {
	*memory.Store
}

func (unhealthyStore) HealthCheck(context.Context) error {
	return errors.New("connection refused")
}

func TestNewRouter(t *testing.T) {
	router, _ := setupTestRouter(t)
	assert.NotNil(t, router)
	assert.NotNil(t, router.Handler())
}

func TestRouter_HealthCheck(t *testing.T) {
	t.Run("正常系: ストレージに接続できる", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("異常系: ストレージに接続できない", func(t *testing.T) {
		router, _ := setupTestRouterWithStore(t, unhealthyStore{memory.NewStore()})

		rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestRouter_Middleware(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	requestID := rec.Header().Get(echo.HeaderXRequestID)
	_, err := ulid.Parse(requestID)
	assert.NoError(t, err, "request id: %s", requestID)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/no-such-route", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Not Found"`)
}

func TestRouter_SwaggerEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		contains       string
	}{
		{
			name:           "Swagger UIエンドポイント",
			path:           "/swagger/index.html",
			expectedStatus: http.StatusOK,
			contains:       "swagger",
		},
		{
			name:           "ReDocエンドポイント",
			path:           "/redoc",
			expectedStatus: http.StatusOK,
			contains:       `spec-url="/openapi.yaml"`,
		},
		{
			name:           "OpenAPI仕様エンドポイント",
			path:           "/openapi.yaml",
			expectedStatus: http.StatusOK,
			contains:       "/api/payment/mock-gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code, "path: %s", tt.path)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestRouter_PaymentFlow(t *testing.T) {
	router, registry := setupTestRouter(t)

	// 入金画面のフォーム送信
	form := url.Values{"provider": {"nagad"}, "amount": {"750"}}
	req := httptest.NewRequest(http.MethodPost, "/api/payment/create", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := do(router, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "/api/payment/mock-gateway", location.Path)

	// ゲートウェイ画面
	rec = do(router, httptest.NewRequest(http.MethodGet, location.RequestURI(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Confirm Payment")

	// 確定（フォームのhiddenと同じクエリ）
	q := location.Query()
	q.Set("status", "success")
	rec = do(router, httptest.NewRequest(http.MethodGet, "/add-money/confirm?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment confirmed! Redirecting...")

	// 履歴画面
	rec = do(router, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), q.Get("tx"))
	assert.Contains(t, rec.Body.String(), "750.00 BDT")

	book, err := registry.For("1")
	require.NoError(t, err)
	w, err := book.GetWallet(context.Background())
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "750", w.Balance().String())
}

func TestRouter_PaymentCallback(t *testing.T) {
	router, registry := setupTestRouter(t)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/add-money/callback?tx=TXN_CB1&provider=bkash&amount=200&status=success", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Payment processed successfully! Redirecting...")
	assert.Contains(t, rec.Body.String(), `content="1.5;url=/history"`)

	book, err := registry.For("1")
	require.NoError(t, err)
	topUps, err := book.GetTopUps(context.Background())
	require.NoError(t, err)
	require.Len(t, topUps, 1)
	assert.Equal(t, "TXN_CB1", topUps[0].ID)
	assert.Equal(t, "success", topUps[0].Status)

	// コールバックは残高を変更しない
	w, err := book.GetWallet(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestRouter_AuthTokenEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := do(router, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_id_required")
}

func TestRouter_AuthenticatedEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := issueToken(t, router, "user123")

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		token          string
		expectedStatus int
	}{
		{
			name:           "異常系: トークンなし",
			method:         http.MethodGet,
			path:           "/api/v1/wallet",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 不正なトークン",
			method:         http.MethodGet,
			path:           "/api/v1/wallet",
			token:          "not-a-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "正常系: ウォレット未作成",
			method:         http.MethodGet,
			path:           "/api/v1/wallet",
			token:          token,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "正常系: 入金",
			method:         http.MethodPost,
			path:           "/api/v1/add-money",
			body:           `{"provider":"bkash","account":"01712345678","amount":1000}`,
			token:          token,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "正常系: 入金後のウォレット",
			method:         http.MethodGet,
			path:           "/api/v1/wallet",
			token:          token,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 履歴",
			method:         http.MethodGet,
			path:           "/api/v1/transactions",
			token:          token,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 日次集計",
			method:         http.MethodGet,
			path:           "/api/v1/stats/daily",
			token:          token,
			expectedStatus: http.StatusOK,
		},
	}

	// 順番に実行する（入金の結果を後続で確認する）
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}

			rec := do(router, req)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_AdminEndpoints(t *testing.T) {
	router, registry := setupTestRouter(t)
	book, err := registry.For("user456")
	require.NoError(t, err)
	_, err = book.EnsureWallet(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		expectedStatus int
	}{
		{
			name:           "異常系: APIキーなし",
			method:         http.MethodGet,
			path:           "/admin/users/user456/wallet",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: APIキー不一致",
			method:         http.MethodGet,
			path:           "/admin/users/user456/wallet",
			apiKey:         "wrong-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "正常系: ウォレット取得",
			method:         http.MethodGet,
			path:           "/admin/users/user456/wallet",
			apiKey:         testAdminKey,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 履歴取得",
			method:         http.MethodGet,
			path:           "/admin/users/user456/transactions",
			apiKey:         testAdminKey,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: データ削除",
			method:         http.MethodDelete,
			path:           "/admin/users/user456/data",
			apiKey:         testAdminKey,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "正常系: 削除後はウォレットなし",
			method:         http.MethodGet,
			path:           "/admin/users/user456/wallet",
			apiKey:         testAdminKey,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}

			rec := do(router, req)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_StartShutdown(t *testing.T) {
	router, _ := setupTestRouter(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start("127.0.0.1:0")
	}()

	// 起動を待つ
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, router.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
