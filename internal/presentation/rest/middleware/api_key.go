package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// APIKeyHeader 管理APIのキーを渡すヘッダー
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware APIキー認証ミドルウェア
func APIKeyMiddleware(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// 管理APIが無効化されている場合はエラー
			if !cfg.Enabled {
				logger.Warn(ctx, "Admin API is disabled", nil)
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Admin API is disabled",
				})
			}

			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				logger.Warn(ctx, "Missing X-API-Key header", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing X-API-Key header",
				})
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.APIKey)) != 1 {
				logger.Warn(ctx, "Invalid API key", nil)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid API key",
				})
			}

			// IP制限のチェック（設定されている場合）
			if len(cfg.AllowedIPs) > 0 {
				clientIP := getClientIP(c)
				if !isIPAllowed(clientIP, cfg.AllowedIPs) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "forbidden",
						Message: "IP address not allowed",
					})
				}
			}

			return next(c)
		}
	}
}

// getClientIP クライアントのIPアドレスを取得
func getClientIP(c echo.Context) string {
	// X-Forwarded-Forはカンマ区切りの先頭
	if forwardedFor := c.Request().Header.Get("X-Forwarded-For"); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}

	if realIP := c.Request().Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	addr := c.Request().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// isIPAllowed IPアドレスが許可リスト（IPまたはCIDR）に含まれているかチェック
func isIPAllowed(ip string, allowedIPs []string) bool {
	parsed := net.ParseIP(ip)
	for _, allowed := range allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if ip == allowed {
			return true
		}
		if parsed == nil || !strings.Contains(allowed, "/") {
			continue
		}
		_, network, err := net.ParseCIDR(allowed)
		if err != nil {
			continue
		}
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}
