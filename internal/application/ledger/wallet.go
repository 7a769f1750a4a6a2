package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/domain/transaction"
	"probaho-server/internal/domain/wallet"
)

// GetWallet 保存済みのウォレットを返す（未保存ならnil）
// 壊れたデータは削除してnilを返す
func (s *Service) GetWallet(ctx context.Context) (*wallet.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetWallet")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", s.userID))

	var w *wallet.Wallet
	err := s.withLock(ctx, func(b *batch) (err error) {
		w, err = s.getWallet(ctx, b)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return w, nil
}

// SetWallet ウォレットを保存する。無効なウォレットは保存しない
func (s *Service) SetWallet(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SetWallet")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", s.userID))

	err := s.withLock(ctx, func(b *batch) error {
		return s.setWallet(ctx, b, w)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

// EnsureWallet ウォレットがなければ残高0の初期ウォレットを作成して返す
func (s *Service) EnsureWallet(ctx context.Context) (*wallet.Wallet, error) {
	var w *wallet.Wallet
	err := s.withLock(ctx, func(b *batch) (err error) {
		w, err = s.ensureWallet(ctx, b)
		return err
	})
	return w, err
}

// UpdateWalletBalance 残高に加減算する（creditは加算、debitは減算）
// ウォレットがない場合はnilを返す
func (s *Service) UpdateWalletBalance(ctx context.Context, amount decimal.Decimal, txType transaction.TransactionType) (*wallet.Wallet, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.UpdateWalletBalance")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("transaction_type", txType.String()),
		attribute.String("amount", amount.String()),
	)

	var w *wallet.Wallet
	err := s.withLock(ctx, func(b *batch) (err error) {
		w, err = s.updateWalletBalance(ctx, b, amount, txType)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return w, nil
}

func (s *Service) getWallet(ctx context.Context, b *batch) (*wallet.Wallet, error) {
	data, err := s.store.GetItem(ctx, storage.KeyWallet.String())
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}

	w, err := wallet.Decode([]byte(data))
	if err != nil {
		s.logger.Warn(ctx, "Invalid wallet data in storage, resetting", map[string]interface{}{
			"user_id": s.userID,
			"reason":  err.Error(),
		})
		s.clearKey(ctx, b, storage.KeyWallet, nil)
		return nil, nil
	}
	return w, nil
}

func (s *Service) setWallet(ctx context.Context, b *batch, w *wallet.Wallet) error {
	if err := validateWallet(w); err != nil {
		s.logger.Warn(ctx, "Invalid wallet data provided", map[string]interface{}{
			"user_id": s.userID,
			"reason":  err.Error(),
		})
		return err
	}

	data, err := wallet.Encode(w)
	if err != nil {
		return err
	}
	if err := s.store.SetItem(ctx, storage.KeyWallet.String(), string(data)); err != nil {
		s.logger.Error(ctx, "Failed to save wallet", err, map[string]interface{}{
			"user_id": s.userID,
		})
		s.clearKey(ctx, b, storage.KeyWallet, nil)
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	b.add(storage.KeyWallet, data)
	if s.metrics != nil {
		s.metrics.RecordWalletBalance(ctx, s.userID, w.Balance().InexactFloat64())
	}
	return nil
}

func (s *Service) ensureWallet(ctx context.Context, b *batch) (*wallet.Wallet, error) {
	w, err := s.getWallet(ctx, b)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}

	w = wallet.NewDefaultWallet(s.userID, s.now())
	if err := s.setWallet(ctx, b, w); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Default wallet created", map[string]interface{}{
		"user_id": s.userID,
	})
	return w, nil
}

func (s *Service) updateWalletBalance(ctx context.Context, b *batch, amount decimal.Decimal, txType transaction.TransactionType) (*wallet.Wallet, error) {
	w, err := s.getWallet(ctx, b)
	if err != nil || w == nil {
		return nil, err
	}

	var next *wallet.Wallet
	if txType.IsCredit() {
		next = w.Credit(amount, s.now())
	} else {
		next = w.Debit(amount, s.now())
	}
	if err := s.setWallet(ctx, b, next); err != nil {
		return nil, err
	}
	return next, nil
}

// clearKey キーを削除して通知する（削除の失敗はログのみ）
func (s *Service) clearKey(ctx context.Context, b *batch, key storage.Key, payload []byte) {
	if err := s.store.RemoveItem(ctx, key.String()); err != nil {
		s.logger.Error(ctx, "Failed to clear storage key", err, map[string]interface{}{
			"user_id": s.userID,
			"key":     key.String(),
		})
		return
	}
	b.add(key, payload)
}

func validateWallet(w *wallet.Wallet) error {
	if w == nil {
		return fmt.Errorf("%w: nil wallet", wallet.ErrInvalidWallet)
	}
	_, err := wallet.NewWallet(w.ID(), w.UserID(), w.Balance(), w.Currency(), w.IsActive(), w.CreatedAt(), w.UpdatedAt())
	return err
}
