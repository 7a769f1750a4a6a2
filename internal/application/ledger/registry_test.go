package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/domain/transaction"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
)

func newTestRegistry() *Registry {
	return NewRegistry(memory.NewStore(), otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil), nil)
}

func TestRegistry_For(t *testing.T) {
	store := memory.NewStore()
	r := NewRegistry(store, otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil), nil)

	a, err := r.For("1")
	require.NoError(t, err)
	again, err := r.For("1")
	require.NoError(t, err)
	b, err := r.For("2")
	require.NoError(t, err)

	// 同じユーザーはロックと購読者を共有する
	assert.Same(t, a.mu, again.mu)
	assert.Same(t, a.hub, b.hub)
	assert.Equal(t, "1", a.UserID())
	assert.Equal(t, "2", b.UserID())
	assert.Same(t, store, r.Storage())

	_, err = r.For("")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestRegistry_SubscribeAcrossServices(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	listener, err := r.For("1")
	require.NoError(t, err)
	var got []Notification
	unsubscribe := listener.Subscribe(storage.KeyWallet, func(n Notification) {
		got = append(got, n)
	})

	writer, err := r.For("1")
	require.NoError(t, err)
	_, err = writer.EnsureWallet(ctx)
	require.NoError(t, err)

	other, err := r.For("2")
	require.NoError(t, err)
	_, err = other.EnsureWallet(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].UserID)
	assert.Equal(t, 1, r.hub.size())

	unsubscribe()
	assert.Equal(t, 0, r.hub.size())
}

func TestRegistry_DoesNotRetainServices(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	for i := 0; i < 1000; i++ {
		svc, err := r.For(fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		_, err = svc.GetWallet(ctx)
		require.NoError(t, err)
	}

	// 購読していないユーザーの状態は残らない
	assert.Equal(t, 0, r.hub.size())
}

func TestRegistry_SerializesSameUser(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	svc, err := r.For("1")
	require.NoError(t, err)
	_, err = svc.EnsureWallet(ctx)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.For("1")
			if err != nil {
				return
			}
			_, _ = s.AddTransaction(ctx, transaction.Draft{
				Type:     transaction.TransactionTypeCredit,
				Amount:   decimal.NewFromInt(10),
				Currency: transaction.DefaultCurrency,
				Status:   transaction.TransactionStatusSuccess,
			})
		}()
	}
	wg.Wait()

	w, err := svc.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "500", w.Balance().String())

	txs, err := svc.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, n)
}
