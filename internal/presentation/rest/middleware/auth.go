package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authapp "probaho-server/internal/application/auth"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// UserIDKey 認証済みユーザーIDを保持するechoコンテキストのキー
const UserIDKey = "user_id"

// tokenQueryParam ブラウザのWebSocketはヘッダーを付けられないためクエリでも受け付ける
const tokenQueryParam = "access_token"

// TokenParser JWTを検証してクレームを返す
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*authapp.Claims, error)
}

// AuthMiddleware JWT認証ミドルウェア
func AuthMiddleware(parser TokenParser, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			tokenString, msg := bearerToken(c)
			if tokenString == "" {
				logger.Warn(ctx, msg, map[string]interface{}{
					"path": c.Request().URL.Path,
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: msg,
				})
			}

			claims, err := parser.ParseToken(ctx, tokenString)
			if err != nil {
				logger.Warn(ctx, "Invalid token", map[string]interface{}{
					"error": err.Error(),
				})
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid or expired token",
				})
			}

			c.Set(UserIDKey, claims.UserID)

			return next(c)
		}
	}
}

// bearerToken Authorizationヘッダー（WebSocketのみクエリも可）からトークンを取り出す
// 取り出せない場合は理由を返す
func bearerToken(c echo.Context) (string, string) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if c.IsWebSocket() {
			if token := c.QueryParam(tokenQueryParam); token != "" {
				return token, ""
			}
		}
		return "", "Missing authorization header"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// UserID 認証済みユーザーIDを返す
func UserID(c echo.Context) (string, bool) {
	userID, ok := c.Get(UserIDKey).(string)
	return userID, ok && userID != ""
}
