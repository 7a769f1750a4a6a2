package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/domain/transaction"
)

// emptyList 空の一覧の保存形式
var emptyList = []byte("[]")

// ledgerKeys 取引の追加で書き換わるキー
var ledgerKeys = []storage.Key{storage.KeyTransactions, storage.KeyWallet}

// GetTransactions 取引履歴を新しい順に返す
// 不正な要素は除外して書き戻し、配列でないデータは削除する
func (s *Service) GetTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", s.userID))

	var txs []*transaction.Transaction
	err := s.withLock(ctx, func(b *batch) (err error) {
		txs, err = s.getTransactions(ctx, b)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("transaction_count", len(txs)))
	return txs, nil
}

// AddTransaction 取引を先頭に追加する
// 金額が0以下、またはタイプ・ステータスが不正な場合は何も変更せずnilを返す
// ステータスがsuccessならウォレット残高にも反映する。残高の更新に失敗した場合は取引も書き戻す
func (s *Service) AddTransaction(ctx context.Context, d transaction.Draft) (*transaction.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.AddTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("transaction_type", d.Type.String()),
		attribute.String("status", d.Status.String()),
		attribute.String("amount", d.Amount.String()),
	)

	var t *transaction.Transaction
	err := s.withRollback(ctx, ledgerKeys, func(b *batch) (err error) {
		t, err = s.addTransaction(ctx, b, d)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return t, err
}

func (s *Service) getTransactions(ctx context.Context, b *batch) ([]*transaction.Transaction, error) {
	data, err := s.store.GetItem(ctx, storage.KeyTransactions.String())
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return []*transaction.Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	txs, dropped, err := transaction.DecodeList([]byte(data))
	if err != nil {
		s.logger.Warn(ctx, "Invalid transactions data in storage, resetting", map[string]interface{}{
			"user_id": s.userID,
			"reason":  err.Error(),
		})
		s.clearKey(ctx, b, storage.KeyTransactions, emptyList)
		return []*transaction.Transaction{}, nil
	}

	if dropped > 0 {
		s.logger.Warn(ctx, "Filtered out invalid transactions", map[string]interface{}{
			"user_id": s.userID,
			"dropped": dropped,
		})
		if err := s.setTransactions(ctx, b, txs); err != nil {
			s.logger.Error(ctx, "Failed to save cleaned transactions", err, map[string]interface{}{
				"user_id": s.userID,
			})
		}
	}
	return txs, nil
}

func (s *Service) setTransactions(ctx context.Context, b *batch, txs []*transaction.Transaction) error {
	data, err := transaction.EncodeList(txs)
	if err != nil {
		return err
	}
	if err := s.store.SetItem(ctx, storage.KeyTransactions.String(), string(data)); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	b.add(storage.KeyTransactions, data)
	return nil
}

func (s *Service) addTransaction(ctx context.Context, b *batch, d transaction.Draft) (*transaction.Transaction, error) {
	if err := d.Validate(); err != nil {
		s.logger.Warn(ctx, "Invalid transaction data provided", map[string]interface{}{
			"user_id": s.userID,
			"reason":  err.Error(),
		})
		return nil, err
	}
	if d.UserID == "" {
		d.UserID = s.userID
	}

	txs, err := s.getTransactions(ctx, b)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t, err := transaction.NewTransaction(transaction.NewUniqueID(now, txs), d, now)
	if err != nil {
		return nil, err
	}

	updated := make([]*transaction.Transaction, 0, len(txs)+1)
	updated = append(updated, t)
	updated = append(updated, txs...)
	if err := s.setTransactions(ctx, b, updated); err != nil {
		s.logger.Error(ctx, "Failed to save transaction", err, map[string]interface{}{
			"user_id":        s.userID,
			"transaction_id": t.ID(),
		})
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransaction(ctx, t.Type().String(), t.Status().String())
	}
	s.logger.Info(ctx, "Transaction added", map[string]interface{}{
		"user_id":          s.userID,
		"transaction_id":   t.ID(),
		"transaction_type": t.Type().String(),
		"status":           t.Status().String(),
		"amount":           t.Amount().String(),
	})

	if t.Status().IsSuccess() {
		if _, err := s.updateWalletBalance(ctx, b, t.Amount(), t.Type()); err != nil {
			return t, fmt.Errorf("transaction %s saved but balance update failed: %w", t.ID(), err)
		}
	}
	return t, nil
}
