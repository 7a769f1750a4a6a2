package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 台帳トランザクション数
	TransactionCount metric.Int64Counter

	// ウォレット残高
	WalletBalance metric.Float64Gauge

	// マイナス残高の発生件数
	NegativeBalanceCount metric.Int64Counter

	// 決済セッション発行数
	PaymentSessionCount metric.Int64Counter

	// 署名検証数
	SignatureVerificationCount metric.Int64Counter

	// 決済確定数
	PaymentConfirmationCount metric.Int64Counter

	// ストレージ操作時間
	StorageLatency metric.Float64Histogram

	// 台帳イベント配信数
	EventPublishCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	transactionCount, err := meter.Int64Counter(
		"ledger_transactions_total",
		metric.WithDescription("Total number of ledger transactions"),
	)
	if err != nil {
		return nil, err
	}

	walletBalance, err := meter.Float64Gauge(
		"wallet_balance",
		metric.WithDescription("Wallet balance in BDT"),
	)
	if err != nil {
		return nil, err
	}

	negativeBalanceCount, err := meter.Int64Counter(
		"negative_balance_total",
		metric.WithDescription("Total number of negative balance occurrences"),
	)
	if err != nil {
		return nil, err
	}

	paymentSessionCount, err := meter.Int64Counter(
		"payment_sessions_total",
		metric.WithDescription("Total number of issued payment sessions"),
	)
	if err != nil {
		return nil, err
	}

	signatureVerificationCount, err := meter.Int64Counter(
		"payment_signature_verifications_total",
		metric.WithDescription("Total number of gateway signature verifications"),
	)
	if err != nil {
		return nil, err
	}

	paymentConfirmationCount, err := meter.Int64Counter(
		"payment_confirmations_total",
		metric.WithDescription("Total number of payment confirmations"),
	)
	if err != nil {
		return nil, err
	}

	storageLatency, err := meter.Float64Histogram(
		"storage_operation_seconds",
		metric.WithDescription("Storage operation latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	eventPublishCount, err := meter.Int64Counter(
		"ledger_events_published_total",
		metric.WithDescription("Total number of ledger event publish attempts"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TransactionCount:           transactionCount,
		WalletBalance:              walletBalance,
		NegativeBalanceCount:       negativeBalanceCount,
		PaymentSessionCount:        paymentSessionCount,
		SignatureVerificationCount: signatureVerificationCount,
		PaymentConfirmationCount:   paymentConfirmationCount,
		StorageLatency:             storageLatency,
		EventPublishCount:          eventPublishCount,
		RequestCount:               requestCount,
		ResponseTime:               responseTime,
		ErrorCount:                 errorCount,
	}, nil
}

// RecordTransaction 台帳トランザクションを記録
func (m *Metrics) RecordTransaction(ctx context.Context, transactionType, status string) {
	m.TransactionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("transaction_type", transactionType),
			attribute.String("status", status),
		),
	)
}

// RecordWalletBalance ウォレット残高を記録
func (m *Metrics) RecordWalletBalance(ctx context.Context, userID string, balance float64) {
	m.WalletBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
	if balance < 0 {
		m.RecordNegativeBalance(ctx, userID)
	}
}

// RecordNegativeBalance マイナス残高の発生を記録
func (m *Metrics) RecordNegativeBalance(ctx context.Context, userID string) {
	m.NegativeBalanceCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("user_id", userID),
		),
	)
}

// RecordPaymentSession 決済セッション発行を記録
func (m *Metrics) RecordPaymentSession(ctx context.Context, provider string) {
	m.PaymentSessionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
		),
	)
}

// RecordSignatureVerification 署名検証結果を記録
func (m *Metrics) RecordSignatureVerification(ctx context.Context, valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.SignatureVerificationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordPaymentConfirmation 決済確定結果を記録
func (m *Metrics) RecordPaymentConfirmation(ctx context.Context, provider, result string) {
	m.PaymentConfirmationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("result", result),
		),
	)
}

// RecordStorageLatency ストレージ操作時間を記録
func (m *Metrics) RecordStorageLatency(ctx context.Context, driver, operation string, duration float64) {
	m.StorageLatency.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("driver", driver),
			attribute.String("operation", operation),
		),
	)
}

// RecordEventPublish 台帳イベント配信結果を記録
func (m *Metrics) RecordEventPublish(ctx context.Context, sink string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.EventPublishCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("sink", sink),
			attribute.String("result", result),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
