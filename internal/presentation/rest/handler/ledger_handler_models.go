package handler

import (
	"encoding/json"

	"probaho-server/internal/domain/profile"
	"probaho-server/internal/domain/transaction"
)

// AddTransactionRequest トランザクション追加リクエスト
// @Description トランザクション追加リクエスト
type AddTransactionRequest struct {
	Type         string      `json:"type" example:"credit"`
	Amount       json.Number `json:"amount" swaggertype:"number" example:"500"`
	Currency     string      `json:"currency,omitempty" example:"BDT"`
	Status       string      `json:"status" example:"success"`
	Description  string      `json:"description" example:"Cash in"`
	MFSProvider  *string     `json:"mfsProvider,omitempty" example:"bkash"`
	RecipientMFS *string     `json:"recipientMfs,omitempty" example:"nagad"`
	Account      *string     `json:"account,omitempty" example:"01712345678"`
	Note         *string     `json:"note,omitempty"`
}

// AddMoneyRequest MFSからの入金リクエスト
// @Description MFSからの入金リクエスト
type AddMoneyRequest struct {
	Provider  string      `json:"provider" example:"bkash"`
	Account   string      `json:"account" example:"01712345678"`
	Amount    json.Number `json:"amount" swaggertype:"number" example:"1000"`
	Reference string      `json:"reference,omitempty" example:"REF123"`
	Note      *string     `json:"note,omitempty"`
}

// SendMoneyRequest MFSへの送金リクエスト
// @Description MFSへの送金リクエスト
type SendMoneyRequest struct {
	RecipientMFS string      `json:"recipientMfs" example:"nagad"`
	Account      string      `json:"account" example:"01712345678"`
	Amount       json.Number `json:"amount" swaggertype:"number" example:"500"`
	Note         *string     `json:"note,omitempty"`
}

// SendMoneyResponse 送金レスポンス
// @Description 送金レスポンス
type SendMoneyResponse struct {
	Transaction *transaction.Transaction `json:"transaction" swaggertype:"object"`
	Fee         json.Number              `json:"fee" swaggertype:"number" example:"7.5"`
	Total       json.Number              `json:"total" swaggertype:"number" example:"507.5"`
}

// DailyStatsResponse 本日分の集計レスポンス
// @Description 本日分の集計レスポンス
type DailyStatsResponse struct {
	Sent         json.Number `json:"sent" swaggertype:"number" example:"507.5"`
	Received     json.Number `json:"received" swaggertype:"number" example:"1000"`
	Transactions int         `json:"transactions" example:"2"`
}

// UserRequest ユーザー情報更新リクエスト
// @Description ユーザー情報更新リクエスト
type UserRequest struct {
	PhoneNumber string  `json:"phoneNumber" example:"01712345678"`
	Email       *string `json:"email,omitempty" example:"user@example.com"`
	FirstName   string  `json:"firstName" example:"Rahim"`
	LastName    string  `json:"lastName" example:"Uddin"`
	IsVerified  bool    `json:"isVerified" example:"false"`
}

// SettingsRequest 設定更新リクエスト
type SettingsRequest = profile.Settings
