package history

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// ErrInvalidFilter フィルタ値が不正
var ErrInvalidFilter = errors.New("invalid history filter")

// Ledger 履歴の読み出し元
type Ledger interface {
	GetTransactions(ctx context.Context) ([]*transaction.Transaction, error)
	GetTopUps(ctx context.Context) ([]topup.TopUp, error)
}

// LedgerFunc ユーザーIDから台帳を引く
type LedgerFunc func(userID string) (Ledger, error)

// FromRegistry Registryを読み出し元にする
func FromRegistry(r *ledger.Registry) LedgerFunc {
	return func(userID string) (Ledger, error) {
		s, err := r.For(userID)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	ledgers LedgerFunc
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	ledgers LedgerFunc,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		ledgers: ledgers,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("history-service"),
	}
}

// GetTransactionHistory トランザクション履歴を新しい順に取得
func (s *HistoryApplicationService) GetTransactionHistory(ctx context.Context, req *GetTransactionHistoryRequest) (*GetTransactionHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetTransactionHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	// バリデーション
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		txType transaction.TransactionType
		status transaction.TransactionStatus
		err    error
	)
	if req.Type != "" {
		if txType, err = transaction.NewTransactionType(req.Type); err != nil {
			return nil, s.fail(span, fmt.Errorf("%w: %w", ErrInvalidFilter, err))
		}
	}
	if req.Status != "" {
		if status, err = transaction.NewTransactionStatus(req.Status); err != nil {
			return nil, s.fail(span, fmt.Errorf("%w: %w", ErrInvalidFilter, err))
		}
	}

	book, err := s.ledgers(req.UserID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	transactions, err := book.GetTransactions(ctx)
	if err != nil {
		s.logger.Error(ctx, "Failed to get transaction history", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, s.fail(span, fmt.Errorf("failed to get transaction history: %w", err))
	}

	// フィルタリング
	filtered := make([]*transaction.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txType != "" && txn.Type() != txType {
			continue
		}
		if status != "" && txn.Status() != status {
			continue
		}
		filtered = append(filtered, txn)
	}

	// ページング
	page := []*transaction.Transaction{}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[offset:end]
	}

	s.logger.Debug(ctx, "Transaction history loaded", map[string]interface{}{
		"user_id":  req.UserID,
		"total":    len(filtered),
		"returned": len(page),
	})

	return &GetTransactionHistoryResponse{
		Transactions: page,
		Total:        len(filtered),
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// GetOverview 入金記録と最新の取引をまとめて取得
func (s *HistoryApplicationService) GetOverview(ctx context.Context, userID string) (*Overview, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetOverview")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	book, err := s.ledgers(userID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	topUps, err := book.GetTopUps(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to get top-ups: %w", err))
	}

	resp, err := s.GetTransactionHistory(ctx, &GetTransactionHistoryRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return &Overview{
		TopUps:       topUps,
		Transactions: resp.Transactions,
	}, nil
}

func (s *HistoryApplicationService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
