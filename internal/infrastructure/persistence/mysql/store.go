package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"probaho-server/internal/domain/storage"
)

// CreateTableSQL ストレージテーブルの定義
const CreateTableSQL = `
	CREATE TABLE IF NOT EXISTS storage_items (
		item_key VARCHAR(255) NOT NULL PRIMARY KEY,
		item_value LONGTEXT NOT NULL,
		updated_at DATETIME(3) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// Store MySQL実装のStorage
type Store struct {
	db     *DB
	tm     *TransactionManager
	tracer trace.Tracer
	now    func() time.Time
}

// NewStore 新しいStoreを作成
func NewStore(db *DB) *Store {
	return &Store{
		db:     db,
		tm:     NewTransactionManager(db),
		tracer: otel.Tracer("mysql-store"),
		now:    time.Now,
	}
}

// EnsureSchema テーブルがなければ作成
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("failed to create storage_items: %w", err)
	}
	return nil
}

// GetItem 値を取得
func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	ctx, span := s.startSpan(ctx, "Store.GetItem", "SELECT", key)
	defer span.End()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT item_value FROM storage_items WHERE item_key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrItemNotFound
		}
		recordError(span, err)
		return "", fmt.Errorf("failed to get item: %w", err)
	}
	return value, nil
}

// SetItem 値を保存（既存の値は上書き）
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	ctx, span := s.startSpan(ctx, "Store.SetItem", "INSERT", key)
	defer span.End()

	query := `
		INSERT INTO storage_items (item_key, item_value, updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			item_value = VALUES(item_value),
			updated_at = VALUES(updated_at)
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UTC()); err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to set item: %w", err)
	}
	return nil
}

// RemoveItem 値を削除
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	ctx, span := s.startSpan(ctx, "Store.RemoveItem", "DELETE", key)
	defer span.End()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM storage_items WHERE item_key = ?`, key); err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

// RemoveItems 複数の値を1トランザクションで削除
func (s *Store) RemoveItems(ctx context.Context, keys ...string) error {
	ctx, span := s.tracer.Start(ctx, "Store.RemoveItems")
	defer span.End()
	span.SetAttributes(
		attribute.Int("db.key_count", len(keys)),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "storage_items"),
	)

	err := s.tm.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM storage_items WHERE item_key = ?`, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}

// HealthCheck 接続状態を確認
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *Store) startSpan(ctx context.Context, name, operation, key string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.key", key),
		attribute.String("db.operation", operation),
		attribute.String("db.table", "storage_items"),
	)
	return ctx, span
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
