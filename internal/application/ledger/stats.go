package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/domain/transaction"
)

// GetDailyStats 本日（設定タイムゾーンの暦日）の取引を集計
func (s *Service) GetDailyStats(ctx context.Context) (DailyStats, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetDailyStats")
	defer span.End()

	var stats DailyStats
	err := s.withLock(ctx, func(b *batch) error {
		txs, err := s.getTransactions(ctx, b)
		if err != nil {
			return err
		}
		stats = dailyStats(txs, s.now(), s.loc)
		return nil
	})
	return stats, err
}

// dailyStats nowと同じ暦日の取引を集計（ステータスは問わない）
func dailyStats(txs []*transaction.Transaction, now time.Time, loc *time.Location) DailyStats {
	stats := DailyStats{Sent: decimal.Zero, Received: decimal.Zero}
	y, m, d := now.In(loc).Date()
	for _, t := range txs {
		ty, tm, td := t.CreatedAt().In(loc).Date()
		if ty != y || tm != m || td != d {
			continue
		}
		stats.Transactions++
		if t.Type().IsCredit() {
			stats.Received = stats.Received.Add(t.Amount())
		} else {
			stats.Sent = stats.Sent.Add(t.Amount())
		}
	}
	return stats
}

// ClearAllData 全キーを削除
func (s *Service) ClearAllData(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ClearAllData")
	defer span.End()

	return s.withLock(ctx, func(b *batch) error {
		keys := storage.AllKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		if err := storage.RemoveAll(ctx, s.store, names...); err != nil {
			s.logger.Error(ctx, "Failed to clear all data", err, map[string]interface{}{
				"user_id": s.userID,
			})
			return err
		}
		for _, k := range keys {
			b.add(k, nil)
		}
		s.logger.Info(ctx, "All ledger data cleared", map[string]interface{}{
			"user_id": s.userID,
		})
		return nil
	})
}
