package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
)

// MockLedger モック台帳
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockLedger) GetTopUps(ctx context.Context) ([]topup.TopUp, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]topup.TopUp), args.Error(1)
}

// sampleTransactions credit/debitを交互に、ステータスを循環させてn件作成（新しい順）
func sampleTransactions(n int) []*transaction.Transaction {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	statuses := []transaction.TransactionStatus{
		transaction.TransactionStatusSuccess,
		transaction.TransactionStatusPending,
		transaction.TransactionStatusFailed,
	}
	txs := make([]*transaction.Transaction, 0, n)
	for i := n - 1; i >= 0; i-- {
		txType := transaction.TransactionTypeCredit
		if i%2 == 1 {
			txType = transaction.TransactionTypeDebit
		}
		now := base.Add(time.Duration(i) * time.Minute)
		txs = append(txs, transaction.MustNewTransaction(transaction.NewID(now), transaction.Draft{
			UserID: "1",
			Type:   txType,
			Amount: decimal.NewFromInt(int64(i + 1)),
			Status: statuses[i%3],
		}, now))
	}
	return txs
}

func newService(m *MockLedger) *HistoryApplicationService {
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	return NewHistoryApplicationService(func(string) (Ledger, error) { return m, nil }, logger, nil)
}

func TestHistoryApplicationService_GetTransactionHistory(t *testing.T) {
	tests := []struct {
		name       string
		req        *GetTransactionHistoryRequest
		setupMocks func(*MockLedger)
		wantError  error
		checkFunc  func(*testing.T, *GetTransactionHistoryResponse)
	}{
		{
			name: "正常系: 既定は50件",
			req:  &GetTransactionHistoryRequest{UserID: "1"},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(120), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Len(t, resp.Transactions, 50)
				assert.Equal(t, 120, resp.Total)
				assert.Equal(t, 50, resp.Limit)
				assert.Equal(t, 0, resp.Offset)
				assert.Equal(t, "120", resp.Transactions[0].Amount().String())
			},
		},
		{
			name: "正常系: 上限は100件",
			req:  &GetTransactionHistoryRequest{UserID: "1", Limit: 500},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(120), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Len(t, resp.Transactions, 100)
				assert.Equal(t, 100, resp.Limit)
			},
		},
		{
			name: "正常系: オフセット",
			req:  &GetTransactionHistoryRequest{UserID: "1", Limit: 10, Offset: 115},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(120), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				require.Len(t, resp.Transactions, 5)
				assert.Equal(t, "5", resp.Transactions[0].Amount().String())
			},
		},
		{
			name: "正常系: オフセットが件数を超える",
			req:  &GetTransactionHistoryRequest{UserID: "1", Offset: 200},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(3), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.NotNil(t, resp.Transactions)
				assert.Empty(t, resp.Transactions)
				assert.Equal(t, 3, resp.Total)
			},
		},
		{
			name: "正常系: 負のオフセットは0",
			req:  &GetTransactionHistoryRequest{UserID: "1", Offset: -3},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(3), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				assert.Equal(t, 0, resp.Offset)
				assert.Len(t, resp.Transactions, 3)
			},
		},
		{
			name: "正常系: タイプとステータスで絞り込み",
			req:  &GetTransactionHistoryRequest{UserID: "1", Type: "credit", Status: "success"},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(sampleTransactions(12), nil)
			},
			checkFunc: func(t *testing.T, resp *GetTransactionHistoryResponse) {
				// i=0,6 がcreditかつsuccess
				assert.Equal(t, 2, resp.Total)
				for _, txn := range resp.Transactions {
					assert.Equal(t, transaction.TransactionTypeCredit, txn.Type())
					assert.Equal(t, transaction.TransactionStatusSuccess, txn.Status())
				}
			},
		},
		{
			name:       "異常系: 不明なタイプ",
			req:        &GetTransactionHistoryRequest{UserID: "1", Type: "refund"},
			setupMocks: func(m *MockLedger) {},
			wantError:  ErrInvalidFilter,
		},
		{
			name:       "異常系: 不明なステータス",
			req:        &GetTransactionHistoryRequest{UserID: "1", Status: "done"},
			setupMocks: func(m *MockLedger) {},
			wantError:  ErrInvalidFilter,
		},
		{
			name: "異常系: 台帳の読み込みエラー",
			req:  &GetTransactionHistoryRequest{UserID: "1"},
			setupMocks: func(m *MockLedger) {
				m.On("GetTransactions", mock.Anything).Return(nil, errStorage)
			},
			wantError: errStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockLedger)
			tt.setupMocks(m)

			got, err := newService(m).GetTransactionHistory(context.Background(), tt.req)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				tt.checkFunc(t, got)
			}
			m.AssertExpectations(t)
		})
	}
}

var errStorage = errors.New("storage unavailable")

func TestHistoryApplicationService_GetOverview(t *testing.T) {
	m := new(MockLedger)
	topUps := []topup.TopUp{{ID: "TXN_1", SessionID: "sess_1", Provider: "bkash", Amount: decimal.NewFromInt(1000), Status: topup.StatusSuccess}}
	m.On("GetTopUps", mock.Anything).Return(topUps, nil)
	m.On("GetTransactions", mock.Anything).Return(sampleTransactions(3), nil)

	got, err := newService(m).GetOverview(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, topUps, got.TopUps)
	assert.Len(t, got.Transactions, 3)
	m.AssertExpectations(t)
}

func TestHistoryApplicationService_GetOverview_TopUpError(t *testing.T) {
	m := new(MockLedger)
	m.On("GetTopUps", mock.Anything).Return(nil, errStorage)

	_, err := newService(m).GetOverview(context.Background(), "1")
	assert.ErrorIs(t, err, errStorage)
	m.AssertNotCalled(t, "GetTransactions", mock.Anything)
}

func TestFromRegistry(t *testing.T) {
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	registry := ledger.NewRegistry(memory.NewStore(), logger, nil)
	svc := NewHistoryApplicationService(FromRegistry(registry), logger, nil)

	book, err := registry.For("7")
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := book.AddTransaction(context.Background(), transaction.Draft{
			Type:   transaction.TransactionTypeCredit,
			Amount: decimal.NewFromInt(int64(i)),
			Status: transaction.TransactionStatusPending,
		})
		require.NoError(t, err)
	}

	got, err := svc.GetTransactionHistory(context.Background(), &GetTransactionHistoryRequest{UserID: "7", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "3", got.Transactions[0].Amount().String())

	_, err = svc.GetTransactionHistory(context.Background(), &GetTransactionHistoryRequest{UserID: ""})
	assert.ErrorIs(t, err, ledger.ErrInvalidUserID)
}
