package transaction

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRecord = `{
	"id": "TXN_1714557600000",
	"userId": "1",
	"type": "credit",
	"amount": 1000,
	"currency": "BDT",
	"status": "success",
	"description": "Added money from bKash",
	"mfsProvider": "bkash",
	"account": "01712345678",
	"createdAt": "2024-05-01T10:00:00.000Z",
	"updatedAt": "2024-05-01T10:00:00.000Z"
}`

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(validRecord))
	require.NoError(t, err)

	assert.Equal(t, "TXN_1714557600000", got.ID())
	assert.Equal(t, TransactionTypeCredit, got.Type())
	assert.True(t, got.Amount().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, TransactionStatusSuccess, got.Status())
	require.NotNil(t, got.MFSProvider())
	assert.Equal(t, "bkash", *got.MFSProvider())
	assert.Nil(t, got.Note())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt().UTC())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{name: "異常系: 金額が文字列", mutate: func(m map[string]interface{}) { m["amount"] = "1000" }},
		{name: "異常系: 無効なタイプ", mutate: func(m map[string]interface{}) { m["type"] = "refund" }},
		{name: "異常系: 無効なステータス", mutate: func(m map[string]interface{}) { m["status"] = "completed" }},
		{name: "異常系: 説明なし", mutate: func(m map[string]interface{}) { delete(m, "description") }},
		{name: "異常系: 日時が不正", mutate: func(m map[string]interface{}) { m["createdAt"] = "yesterday" }},
		{name: "異常系: userIdが数値", mutate: func(m map[string]interface{}) { m["userId"] = 1 }},
		{name: "異常系: noteが数値", mutate: func(m map[string]interface{}) { m["note"] = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(validRecord), &m))
			tt.mutate(m)
			data, err := json.Marshal(m)
			require.NoError(t, err)

			_, err = Decode(data)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
		})
	}
}

func TestDecodeList(t *testing.T) {
	data := []byte(`[` + validRecord + `, {"id": "broken"}, 42]`)

	txs, dropped, err := DecodeList(data)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 2, dropped)

	_, _, err = DecodeList([]byte(`{"not":"array"}`))
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	_, _, err = DecodeList([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestEncodeList_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	note := "TxnID: TXN_9"
	original := []*Transaction{
		MustNewTransaction("TXN_2", Draft{
			UserID:      "1",
			Type:        TransactionTypeDebit,
			Amount:      decimal.RequireFromString("1015.5"),
			Status:      TransactionStatusSuccess,
			Description: "Sent money to Nagad",
			Note:        &note,
		}, now),
		MustNewTransaction("TXN_1", Draft{
			UserID: "1",
			Type:   TransactionTypeCredit,
			Amount: decimal.NewFromInt(2000),
			Status: TransactionStatusPending,
		}, now),
	}

	data, err := EncodeList(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":1015.5`)
	assert.Contains(t, string(data), `"createdAt":"2024-05-01T10:00:00.000Z"`)
	assert.NotContains(t, string(data), `"mfsProvider"`)

	decoded, dropped, err := DecodeList(data)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, decoded, 2)
	assert.Equal(t, "TXN_2", decoded[0].ID())
	assert.True(t, decoded[0].Amount().Equal(original[0].Amount()))
	assert.Equal(t, note, *decoded[0].Note())
	assert.Equal(t, TransactionStatusPending, decoded[1].Status())
}
