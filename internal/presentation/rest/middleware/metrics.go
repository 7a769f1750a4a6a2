package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method

			err := next(c)

			// ルート未確定（404など）はパスではなく固定値で集計する
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordRequest(ctx, method, route)
			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			if status := responseStatus(c, err); status >= 400 {
				errorType := "client_error"
				if status >= 500 {
					errorType = "server_error"
				}
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}
