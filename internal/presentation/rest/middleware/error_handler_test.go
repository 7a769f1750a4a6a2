package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	authapp "probaho-server/internal/application/auth"
	historyapp "probaho-server/internal/application/history"
	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/mfs"
	"probaho-server/internal/domain/payment_session"
	"probaho-server/internal/domain/profile"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
	"probaho-server/internal/domain/wallet"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

func newTestLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil)
}

// runErrorHandler ハンドラーが返したエラーをミドルウェア経由で処理する
func runErrorHandler(t *testing.T, handlerErr error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlerMiddleware(newTestLogger())(func(c echo.Context) error {
		return handlerErr
	})
	require.NoError(t, handler(c))

	var body ErrorResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestErrorHandlerMiddleware_NoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ErrorHandlerMiddleware(newTestLogger())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestErrorHandlerMiddleware_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"署名不一致", payment_session.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
		{"決済金額が不正", payment_session.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{"無効なトランザクション", transaction.ErrInvalidTransaction, http.StatusBadRequest, "invalid_transaction"},
		{"無効なウォレット", wallet.ErrInvalidWallet, http.StatusBadRequest, "invalid_wallet"},
		{"ウォレットなし", wallet.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found"},
		{"残高不足", wallet.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
		{"不明なプロバイダー", mfs.ErrInvalidProvider, http.StatusBadRequest, "invalid_provider"},
		{"入金非対応プロバイダー", mfs.ErrProviderNotSupported, http.StatusBadRequest, "provider_not_supported"},
		{"口座番号が不正", mfs.ErrInvalidAccount, http.StatusBadRequest, "invalid_account"},
		{"電話番号が不正", mfs.ErrInvalidPhoneNumber, http.StatusBadRequest, "invalid_phone_number"},
		{"最低額未満", mfs.ErrAmountBelowMinimum, http.StatusBadRequest, "amount_below_minimum"},
		{"上限超過", mfs.ErrAmountAboveMaximum, http.StatusBadRequest, "amount_above_maximum"},
		{"日次上限超過", mfs.ErrDailyLimitExceeded, http.StatusConflict, "daily_limit_exceeded"},
		{"二重入金", topup.ErrDuplicateTopUp, http.StatusConflict, "duplicate_top_up"},
		{"無効な設定", profile.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings"},
		{"無効なユーザー", profile.ErrInvalidUser, http.StatusBadRequest, "invalid_user"},
		{"ユーザーなし", profile.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{"無効なフィルタ", historyapp.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
		{"user_idなし", authapp.ErrUserIDRequired, http.StatusBadRequest, "user_id_required"},
		{"無効なトークン", authapp.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
		{"空のユーザーID", ledger.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	}

	for _, tt := range tests {
		t.Run("異常系: "+tt.name, func(t *testing.T) {
			rec, body := runErrorHandler(t, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestErrorHandlerMiddleware_WrappedError(t *testing.T) {
	err := fmt.Errorf("%w: balance 10, required 100", wallet.ErrInsufficientBalance)

	rec, body := runErrorHandler(t, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_balance", body.Error)
	assert.Equal(t, "insufficient balance: balance 10, required 100", body.Message)
}

func TestErrorHandlerMiddleware_TransactionWrapsAmount(t *testing.T) {
	// invalid transaction: invalid amount は invalid_transaction として扱う
	err := fmt.Errorf("%w: %w", transaction.ErrInvalidTransaction, transaction.ErrInvalidAmount)

	rec, body := runErrorHandler(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_transaction", body.Error)
}

func TestErrorHandlerMiddleware_HTTPError(t *testing.T) {
	rec, body := runErrorHandler(t, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "invalid request body", body.Message)
}

func TestErrorHandlerMiddleware_HTTPErrorWithNonStringMessage(t *testing.T) {
	rec, body := runErrorHandler(t, echo.NewHTTPError(http.StatusNotFound, map[string]string{"k": "v"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", body.Message)
}

func TestErrorHandlerMiddleware_UnknownError(t *testing.T) {
	rec, body := runErrorHandler(t, errors.New("storage unavailable"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", body.Error)
	assert.Equal(t, "An unexpected error occurred", body.Message)
}
