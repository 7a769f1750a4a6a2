package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
)

// CreateTableSQL ストレージテーブルの定義
const CreateTableSQL = `
	CREATE TABLE IF NOT EXISTS storage_items (
		item_key TEXT PRIMARY KEY,
		item_value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// querier Storeが使うpgxpool.Poolの操作
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// NewPool 接続プールを作成
func NewPool(ctx context.Context, cfg *config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// Store PostgreSQL実装のStorage
type Store struct {
	db     querier
	tracer trace.Tracer
	now    func() time.Time
}

// NewStore 新しいStoreを作成
func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool)
}

func newStore(db querier) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("postgres-store"),
		now:    time.Now,
	}
}

// EnsureSchema テーブルがなければ作成
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("failed to create storage_items: %w", err)
	}
	return nil
}

// GetItem 値を取得
func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	ctx, span := s.startSpan(ctx, "Store.GetItem", "SELECT")
	defer span.End()
	span.SetAttributes(attribute.String("db.key", key))

	var value string
	err := s.db.QueryRow(ctx, `SELECT item_value FROM storage_items WHERE item_key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrItemNotFound
		}
		recordError(span, err)
		return "", fmt.Errorf("failed to get item: %w", err)
	}
	return value, nil
}

// SetItem 値を保存（既存の値は上書き）
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	ctx, span := s.startSpan(ctx, "Store.SetItem", "UPSERT")
	defer span.End()
	span.SetAttributes(attribute.String("db.key", key))

	query := `
		INSERT INTO storage_items (item_key, item_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_key) DO UPDATE SET
			item_value = EXCLUDED.item_value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, key, value, s.now().UTC()); err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to set item: %w", err)
	}
	return nil
}

// RemoveItem 値を削除
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	return s.RemoveItems(ctx, key)
}

// RemoveItems 複数の値を1文で削除
func (s *Store) RemoveItems(ctx context.Context, keys ...string) error {
	ctx, span := s.startSpan(ctx, "Store.RemoveItems", "DELETE")
	defer span.End()
	span.SetAttributes(attribute.Int("db.key_count", len(keys)))

	if len(keys) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM storage_items WHERE item_key = ANY($1)`, keys); err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}

// HealthCheck 接続状態を確認
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.Ping(ctx)
}

func (s *Store) startSpan(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", operation),
		attribute.String("db.table", "storage_items"),
	)
	return ctx, span
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
