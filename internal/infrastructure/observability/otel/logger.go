package otel

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"probaho-server/internal/infrastructure/config"
)

// Logger 構造化ロガー
type Logger struct {
	tracer trace.Tracer
	zl     *zap.Logger
}

// NewLogger 新しいLoggerを作成（JSON形式・Infoレベル）
func NewLogger(tracer trace.Tracer) *Logger {
	return NewLoggerWithZap(tracer, newDefaultZap())
}

// NewLoggerWithZap 既存のzap.LoggerからLoggerを作成
func NewLoggerWithZap(tracer trace.Tracer, zl *zap.Logger) *Logger {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Logger{
		tracer: tracer,
		zl:     zl,
	}
}

// NewZapLogger ログ設定からzap.Loggerを作成
func NewZapLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json", "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)), nil
}

func newDefaultZap() *zap.Logger {
	zl, err := NewZapLogger(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// zapLevel zapのレベルに変換
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	ce := l.zl.Check(level.zapLevel(), message)
	if ce == nil {
		return
	}

	zfs := make([]zap.Field, 0, len(fields)+2)

	// トレースIDとSpanIDを取得
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		zfs = append(zfs,
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
		)
	}

	// 出力順を安定させる
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zfs = append(zfs, zap.Any(k, fields[k]))
	}

	ce.Write(zfs...)
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Log(ctx, LogLevelError, message, merged)
}

// Zap 内部のzap.Loggerを返す
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync バッファをフラッシュ
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
