package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"probaho-server/internal/domain/mfs"
	"probaho-server/internal/domain/storage"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
)

// ConfirmTopUpRequest ゲートウェイで承認された入金
type ConfirmTopUpRequest struct {
	TransactionID string
	SessionID     string
	Provider      string
	Amount        decimal.Decimal
	// RejectReplay 同じTransactionIDの入金記録があれば拒否する
	RejectReplay bool
}

// ConfirmTopUp 入金記録を追加し、同額のcredit取引でウォレットに反映する
// ウォレットがなければ初期ウォレットを作成する。金額が0以下なら取引は作らずnilを返す
// 途中で失敗した場合は入金記録・取引・ウォレットを実行前の状態に戻す
func (s *Service) ConfirmTopUp(ctx context.Context, req ConfirmTopUpRequest) (*transaction.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ConfirmTopUp")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("provider", req.Provider),
		attribute.String("amount", req.Amount.String()),
	)

	var mfsProvider *string
	if p := mfs.Provider(req.Provider); p.Valid() {
		name := p.String()
		mfsProvider = &name
	}
	note := "TxnID: " + req.TransactionID
	draft := transaction.Draft{
		UserID:      s.userID,
		Type:        transaction.TransactionTypeCredit,
		Amount:      req.Amount,
		Currency:    transaction.DefaultCurrency,
		Status:      transaction.TransactionStatusSuccess,
		Description: "Added money from " + mfs.DisplayName(req.Provider),
		MFSProvider: mfsProvider,
		Note:        &note,
	}
	// 0以下の金額は入金記録のみ残し、残高には反映しない
	credit := req.Amount.IsPositive()
	if credit {
		if err := draft.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
	}

	var t *transaction.Transaction
	keys := append([]storage.Key{storage.KeyTopUps}, ledgerKeys...)
	err := s.withRollback(ctx, keys, func(b *batch) error {
		if req.RejectReplay {
			items, err := s.getTopUps(ctx, b)
			if err != nil {
				return err
			}
			if topup.Contains(items, req.TransactionID) {
				return fmt.Errorf("%w: %s", topup.ErrDuplicateTopUp, req.TransactionID)
			}
		}

		if err := s.recordTopUp(ctx, b, topup.TopUp{
			ID:        req.TransactionID,
			SessionID: req.SessionID,
			Provider:  req.Provider,
			Amount:    req.Amount,
			Status:    topup.StatusSuccess,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}

		if _, err := s.ensureWallet(ctx, b); err != nil {
			return err
		}
		if !credit {
			s.logger.Info(ctx, "Top-up recorded without credit", map[string]interface{}{
				"user_id":        s.userID,
				"transaction_id": req.TransactionID,
				"amount":         req.Amount.String(),
			})
			return nil
		}

		var err error
		t, err = s.addTransaction(ctx, b, draft)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return t, nil
}

// GetTopUps ゲートウェイ経由の入金記録を新しい順に返す
func (s *Service) GetTopUps(ctx context.Context) ([]topup.TopUp, error) {
	var items []topup.TopUp
	err := s.withLock(ctx, func(b *batch) (err error) {
		items, err = s.getTopUps(ctx, b)
		return err
	})
	return items, err
}

// RecordTopUp 入金記録だけを先頭に追加する（ウォレットは変更しない）
// 作成日時が未指定なら現在時刻を使う
func (s *Service) RecordTopUp(ctx context.Context, t topup.TopUp) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.RecordTopUp")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("transaction_id", t.ID),
		attribute.String("status", t.Status),
	)

	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	err := s.withLock(ctx, func(b *batch) error {
		return s.recordTopUp(ctx, b, t)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

func (s *Service) getTopUps(ctx context.Context, b *batch) ([]topup.TopUp, error) {
	data, err := s.store.GetItem(ctx, storage.KeyTopUps.String())
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return []topup.TopUp{}, nil
		}
		return nil, fmt.Errorf("failed to read top-ups: %w", err)
	}

	items, dropped, err := topup.DecodeList([]byte(data))
	if err != nil {
		s.logger.Warn(ctx, "Invalid top-ups data in storage, resetting", map[string]interface{}{
			"user_id": s.userID,
			"reason":  err.Error(),
		})
		s.clearKey(ctx, b, storage.KeyTopUps, emptyList)
		return []topup.TopUp{}, nil
	}
	if dropped > 0 {
		s.logger.Warn(ctx, "Filtered out invalid top-ups", map[string]interface{}{
			"user_id": s.userID,
			"dropped": dropped,
		})
	}
	return items, nil
}

func (s *Service) recordTopUp(ctx context.Context, b *batch, t topup.TopUp) error {
	items, err := s.getTopUps(ctx, b)
	if err != nil {
		return err
	}
	updated := append([]topup.TopUp{t}, items...)
	data, err := topup.EncodeList(updated)
	if err != nil {
		return err
	}
	if err := s.store.SetItem(ctx, storage.KeyTopUps.String(), string(data)); err != nil {
		return fmt.Errorf("failed to save top-ups: %w", err)
	}
	b.add(storage.KeyTopUps, data)
	return nil
}
