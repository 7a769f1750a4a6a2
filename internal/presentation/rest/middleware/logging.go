package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
// ErrorHandlerMiddlewareより外側に置くと確定したステータスが記録される
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			status := responseStatus(c, err)
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   c.RealIP(),
				"user_agent":  req.UserAgent(),
			}
			if id := RequestID(c); id != "" {
				fields["request_id"] = id
			}
			if userID, ok := UserID(c); ok {
				fields["user_id"] = userID
			}

			switch {
			case err != nil:
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			case status >= 500:
				logger.Error(req.Context(), "HTTP request failed", nil, fields)
			case status >= 400:
				logger.Warn(req.Context(), "HTTP request completed", fields)
			default:
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}

// responseStatus レスポンスのステータスコード（未送信のエラーはHTTPErrorのコード）
func responseStatus(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		return 500
	}
	return c.Response().Status
}
