package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

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

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ドメインエラーとHTTPレスポンスの対応
type errorMapping struct {
	target error
	status int
	code   string
	log    string
}

// 先に一致したものを使う。ラップされたエラーはerrors.Isで判定
var errorMappings = []errorMapping{
	{payment_session.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature", "Invalid signature"},
	{payment_session.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Invalid payment amount"},
	{transaction.ErrInvalidTransaction, http.StatusBadRequest, "invalid_transaction", "Invalid transaction"},
	{transaction.ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found", "Transaction not found"},
	{wallet.ErrInvalidWallet, http.StatusBadRequest, "invalid_wallet", "Invalid wallet"},
	{wallet.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found", "Wallet not found"},
	{wallet.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance", "Insufficient balance"},
	{mfs.ErrInvalidProvider, http.StatusBadRequest, "invalid_provider", "Invalid MFS provider"},
	{mfs.ErrProviderNotSupported, http.StatusBadRequest, "provider_not_supported", "MFS provider not supported"},
	{mfs.ErrInvalidAccount, http.StatusBadRequest, "invalid_account", "Invalid MFS account"},
	{mfs.ErrInvalidPhoneNumber, http.StatusBadRequest, "invalid_phone_number", "Invalid phone number"},
	{mfs.ErrAmountBelowMinimum, http.StatusBadRequest, "amount_below_minimum", "Amount below minimum"},
	{mfs.ErrAmountAboveMaximum, http.StatusBadRequest, "amount_above_maximum", "Amount above maximum"},
	{mfs.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Invalid amount"},
	{mfs.ErrDailyLimitExceeded, http.StatusConflict, "daily_limit_exceeded", "Daily limit exceeded"},
	{topup.ErrDuplicateTopUp, http.StatusConflict, "duplicate_top_up", "Duplicate top-up"},
	{profile.ErrInvalidSettings, http.StatusBadRequest, "invalid_settings", "Invalid settings"},
	{profile.ErrInvalidUser, http.StatusBadRequest, "invalid_user", "Invalid user"},
	{profile.ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found"},
	{historyapp.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter", "Invalid history filter"},
	{authapp.ErrUserIDRequired, http.StatusBadRequest, "user_id_required", "User id required"},
	{authapp.ErrInvalidToken, http.StatusUnauthorized, "unauthorized", "Invalid token"},
	{ledger.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id", "Invalid user id"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		logger.Warn(ctx, m.log, map[string]interface{}{
			"error": err.Error(),
			"path":  c.Request().URL.Path,
		})
		return c.JSON(m.status, ErrorResponse{
			Error:   m.code,
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー（ストレージ障害など）
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
