package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/payment_session"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

const (
	// DefaultProvider 作成・ゲートウェイでの既定プロバイダー
	DefaultProvider = "bkash"
	// UnknownProvider 確定時にプロバイダーが無い場合の値
	UnknownProvider = "unknown"
	// CallbackDefaultStatus コールバックでステータスが無い場合の値
	CallbackDefaultStatus = "failed"

	gatewayPath   = "/api/payment/mock-gateway"
	confirmPath   = "/add-money/confirm"
	cancelPath    = "/add-money"
	historyPath   = "/history"
	statusSuccess = "success"
)

// Service 決済アプリケーションサービス
type Service struct {
	signer          *payment_session.Signer
	ledgers         *ledger.Registry
	baseURL         string
	defaultUserID   string
	verifyOnConfirm bool
	rejectReplay    bool
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
	now             func() time.Time
}

// NewService 新しいServiceを作成
func NewService(
	cfg *config.Config,
	ledgers *ledger.Registry,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) (*Service, error) {
	signer, err := payment_session.NewSigner(
		cfg.Payment.Secret,
		payment_session.WithConstantTimeCompare(cfg.Payment.ConstantTimeCompare),
	)
	if err != nil {
		return nil, err
	}
	return &Service{
		signer:          signer,
		ledgers:         ledgers,
		baseURL:         strings.TrimRight(cfg.Payment.BaseURL, "/"),
		defaultUserID:   cfg.Ledger.DefaultUserID,
		verifyOnConfirm: cfg.Payment.VerifyOnConfirm,
		rejectReplay:    cfg.Payment.RejectReplay,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("payment-service"),
		now:             time.Now,
	}, nil
}

// CreateSession 署名済みの決済セッションを発行し、ゲートウェイへのURLを返す
// 金額・プロバイダーの範囲は検証しない
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CreateSession")
	defer span.End()

	provider := req.Provider
	if provider == "" {
		provider = DefaultProvider
	}

	ps := payment_session.NewPaymentSession(s.signer, provider, req.Amount, s.now())
	span.SetAttributes(
		attribute.String("session_id", ps.SessionID()),
		attribute.String("transaction_id", ps.TransactionID()),
		attribute.String("provider", provider),
		attribute.String("amount", ps.Amount().String()),
	)

	if s.metrics != nil {
		s.metrics.RecordPaymentSession(ctx, provider)
	}
	s.logger.Info(ctx, "Payment session created", map[string]interface{}{
		"session_id":     ps.SessionID(),
		"transaction_id": ps.TransactionID(),
		"provider":       provider,
		"amount":         ps.Amount().String(),
	})

	p := ps.Payload()
	return &CreateSessionResponse{
		SessionID:     ps.SessionID(),
		TransactionID: ps.TransactionID(),
		RedirectURL:   s.baseURL + gatewayPath + "?" + encodeQuery(p, ps.Signature()),
	}, nil
}

// VerifyGateway ゲートウェイに渡された署名を検証し、確認画面の内容を返す
// 不一致ならErrInvalidSignature
func (s *Service) VerifyGateway(ctx context.Context, req *GatewayRequest) (*GatewayPage, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.VerifyGateway")
	defer span.End()

	p := gatewayPayload(req.SessionID, req.TransactionID, req.Provider, req.Amount)
	span.SetAttributes(
		attribute.String("session_id", p.SessionID),
		attribute.String("transaction_id", p.TransactionID),
		attribute.String("provider", p.Provider),
	)

	valid := s.signer.Verify(p, req.Signature)
	if s.metrics != nil {
		s.metrics.RecordSignatureVerification(ctx, valid)
	}
	if !valid {
		err := payment_session.ErrInvalidSignature
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Gateway signature mismatch", map[string]interface{}{
			"session_id":     p.SessionID,
			"transaction_id": p.TransactionID,
			"provider":       p.Provider,
		})
		return nil, err
	}

	return &GatewayPage{
		SessionID:     p.SessionID,
		TransactionID: p.TransactionID,
		Provider:      p.Provider,
		Amount:        p.Amount,
		Signature:     req.Signature,
		ConfirmAction: s.baseURL + confirmPath,
		CancelURL:     s.baseURL + cancelPath,
	}, nil
}

// ConfirmPayment ゲートウェイで確定した入金を台帳に記録する
// 署名の再検証と二重確定の拒否は設定で有効にした場合のみ行う
func (s *Service) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*ConfirmPaymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ConfirmPayment")
	defer span.End()

	provider := req.Provider
	if provider == "" {
		provider = UnknownProvider
	}
	userID := req.UserID
	if userID == "" {
		userID = s.defaultUserID
	}
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("session_id", req.SessionID),
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("provider", provider),
		attribute.String("amount", req.Amount),
	)

	fail := func(err error, result string) (*ConfirmPaymentResponse, error) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if s.metrics != nil {
			s.metrics.RecordPaymentConfirmation(ctx, provider, result)
		}
		s.logger.Error(ctx, "Failed to confirm payment", err, map[string]interface{}{
			"user_id":        userID,
			"transaction_id": req.TransactionID,
			"provider":       provider,
			"result":         result,
		})
		return nil, err
	}

	if s.verifyOnConfirm {
		p := gatewayPayload(req.SessionID, req.TransactionID, req.Provider, req.Amount)
		valid := s.signer.Verify(p, req.Signature)
		if s.metrics != nil {
			s.metrics.RecordSignatureVerification(ctx, valid)
		}
		if !valid {
			return fail(payment_session.ErrInvalidSignature, "invalid_signature")
		}
	}

	amountText := req.Amount
	if amountText == "" {
		amountText = "0"
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return fail(fmt.Errorf("%w: %q", payment_session.ErrInvalidAmount, req.Amount), "invalid_amount")
	}

	svc, err := s.ledgers.For(userID)
	if err != nil {
		return fail(err, "failure")
	}

	t, err := svc.ConfirmTopUp(ctx, ledger.ConfirmTopUpRequest{
		TransactionID: req.TransactionID,
		SessionID:     req.SessionID,
		Provider:      provider,
		Amount:        amount,
		RejectReplay:  s.rejectReplay,
	})
	if err != nil {
		if errors.Is(err, topup.ErrDuplicateTopUp) {
			return fail(err, "duplicate")
		}
		return fail(err, "failure")
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentConfirmation(ctx, provider, statusSuccess)
	}
	fields := map[string]interface{}{
		"user_id":        userID,
		"transaction_id": req.TransactionID,
		"provider":       provider,
		"amount":         amount.String(),
	}
	// 金額が0以下なら台帳の取引は作られない
	if t != nil {
		fields["ledger_id"] = t.ID()
	}
	s.logger.Info(ctx, "Payment confirmed", fields)

	return &ConfirmPaymentResponse{
		TransactionID: req.TransactionID,
		Provider:      provider,
		Amount:        amount,
		RedirectPath:  historyPath,
	}, nil
}

// RecordCallback ゲートウェイのコールバックを入金記録として残す
// ウォレット・取引履歴は変更しない。txが無ければ現在時刻から採番する
func (s *Service) RecordCallback(ctx context.Context, req *CallbackRequest) (*CallbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.RecordCallback")
	defer span.End()

	provider := req.Provider
	if provider == "" {
		provider = UnknownProvider
	}
	status := req.Status
	if status == "" {
		status = CallbackDefaultStatus
	}
	txID := req.TransactionID
	if txID == "" {
		txID = transaction.NewID(s.now())
	}
	userID := req.UserID
	if userID == "" {
		userID = s.defaultUserID
	}
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("transaction_id", txID),
		attribute.String("provider", provider),
		attribute.String("status", status),
	)

	fail := func(err error) (*CallbackResponse, error) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to record payment callback", err, map[string]interface{}{
			"user_id":        userID,
			"transaction_id": txID,
			"provider":       provider,
		})
		return nil, err
	}

	amountText := req.Amount
	if amountText == "" {
		amountText = "0"
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return fail(fmt.Errorf("%w: %q", payment_session.ErrInvalidAmount, req.Amount))
	}

	svc, err := s.ledgers.For(userID)
	if err != nil {
		return fail(err)
	}
	if err := svc.RecordTopUp(ctx, topup.TopUp{
		ID:        txID,
		Provider:  provider,
		Amount:    amount,
		Status:    status,
		CreatedAt: s.now(),
	}); err != nil {
		return fail(err)
	}

	if s.metrics != nil {
		s.metrics.RecordPaymentConfirmation(ctx, provider, "callback_"+status)
	}
	s.logger.Info(ctx, "Payment callback recorded", map[string]interface{}{
		"user_id":        userID,
		"transaction_id": txID,
		"provider":       provider,
		"status":         status,
		"amount":         amount.String(),
	})

	return &CallbackResponse{
		TransactionID: txID,
		Provider:      provider,
		Amount:        amount,
		Status:        status,
		RedirectPath:  historyPath,
	}, nil
}

// gatewayPayload ゲートウェイの既定値を補って署名対象を組み立てる
func gatewayPayload(sessionID, tx, provider, amount string) payment_session.Payload {
	if provider == "" {
		provider = DefaultProvider
	}
	if amount == "" {
		amount = "0"
	}
	return payment_session.Payload{
		SessionID:     sessionID,
		TransactionID: tx,
		Provider:      provider,
		Amount:        amount,
	}
}

// encodeQuery 署名対象の順序のままクエリ文字列を組み立てる
func encodeQuery(p payment_session.Payload, sig string) string {
	pairs := [][2]string{
		{"sessionId", p.SessionID},
		{"tx", p.TransactionID},
		{"provider", p.Provider},
		{"amount", p.Amount},
		{"sig", sig},
	}
	var b strings.Builder
	for i, kv := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String()
}
