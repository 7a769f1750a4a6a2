package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware OpenTelemetryトレーシングミドルウェア
func TracingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// プロバイダーの差し替えに追従するため都度取得する
			tracer := otel.Tracer("probaho-server")
			req := c.Request()

			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			ctx, span := tracer.Start(ctx, req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", route),
					attribute.String("http.target", req.URL.Path),
					attribute.String("http.user_agent", req.UserAgent()),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := responseStatus(c, err)
			span.SetAttributes(attribute.Int("http.status_code", status))
			if userID, ok := UserID(c); ok {
				span.SetAttributes(attribute.String("enduser.id", userID))
			}
			if err != nil {
				span.RecordError(err)
			}
			if status >= 500 {
				span.SetStatus(otelcodes.Error, "server error")
			}

			return err
		}
	}
}
