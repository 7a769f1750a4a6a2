package ledger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"probaho-server/internal/domain/mfs"
	"probaho-server/internal/domain/transaction"
	"probaho-server/internal/domain/wallet"
)

// AddMoney MFSからの入金を記録する
// プロバイダーの入金上限と本日の受取額に対する日次上限を検証する
func (s *Service) AddMoney(ctx context.Context, req AddMoneyRequest) (*transaction.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.AddMoney")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("provider", req.Provider),
		attribute.String("amount", req.Amount.String()),
	)

	var t *transaction.Transaction
	err := s.withRollback(ctx, ledgerKeys, func(b *batch) error {
		provider, err := mfs.NewProvider(req.Provider)
		if err != nil {
			return err
		}
		limits, err := provider.TopUpLimits()
		if err != nil {
			return err
		}
		if err := limits.ValidateAccount(req.Account); err != nil {
			return err
		}
		if err := limits.ValidateAmount(req.Amount); err != nil {
			return err
		}

		txs, err := s.getTransactions(ctx, b)
		if err != nil {
			return err
		}
		if err := limits.CheckDaily(dailyStats(txs, s.now(), s.loc).Received, req.Amount); err != nil {
			return err
		}

		if _, err := s.ensureWallet(ctx, b); err != nil {
			return err
		}

		note := req.Note
		if note == nil {
			ref := req.Reference
			if ref == "" {
				ref = transaction.NewID(s.now())
			}
			n := "TxnID: " + ref
			note = &n
		}
		providerName := provider.String()
		account := req.Account
		t, err = s.addTransaction(ctx, b, transaction.Draft{
			UserID:      s.userID,
			Type:        transaction.TransactionTypeCredit,
			Amount:      req.Amount,
			Currency:    transaction.DefaultCurrency,
			Status:      transaction.TransactionStatusSuccess,
			Description: "Added money from " + provider.DisplayName(),
			MFSProvider: &providerName,
			Account:     &account,
			Note:        note,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return t, nil
}

// SendMoney MFSへの送金を記録する
// 手数料込みの金額を残高から引く。残高不足ならErrInsufficientBalance
func (s *Service) SendMoney(ctx context.Context, req SendMoneyRequest) (*transaction.Transaction, SendMoneyResult, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SendMoney")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", s.userID),
		attribute.String("recipient_mfs", req.RecipientMFS),
		attribute.String("amount", req.Amount.String()),
	)

	var (
		t      *transaction.Transaction
		result SendMoneyResult
	)
	err := s.withRollback(ctx, ledgerKeys, func(b *batch) error {
		provider, err := mfs.NewProvider(req.RecipientMFS)
		if err != nil {
			return err
		}
		if err := mfs.ValidateAmount(req.Amount); err != nil {
			return err
		}
		if err := mfs.ValidatePhoneNumber(req.Account); err != nil {
			return err
		}

		fee := mfs.CalculateTransferFee(req.Amount)
		total := req.Amount.Add(fee)

		w, err := s.getWallet(ctx, b)
		if err != nil {
			return err
		}
		if w == nil {
			return wallet.ErrWalletNotFound
		}
		if !w.CanDebit(total) {
			return fmt.Errorf("%w: balance %s, required %s", wallet.ErrInsufficientBalance, w.Balance(), total)
		}

		recipient := provider.String()
		account := mfs.NormalizePhoneNumber(req.Account)
		t, err = s.addTransaction(ctx, b, transaction.Draft{
			UserID:       s.userID,
			Type:         transaction.TransactionTypeDebit,
			Amount:       total,
			Currency:     transaction.DefaultCurrency,
			Status:       transaction.TransactionStatusSuccess,
			Description:  "Sent money to " + provider.DisplayName(),
			RecipientMFS: &recipient,
			Account:      &account,
			Note:         req.Note,
		})
		if err != nil {
			return err
		}
		result = SendMoneyResult{Fee: fee, Total: total}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, SendMoneyResult{}, err
	}
	return t, result, nil
}
