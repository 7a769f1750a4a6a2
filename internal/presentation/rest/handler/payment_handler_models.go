package handler

import "encoding/json"

// CreatePaymentRequest 決済セッション作成リクエスト
// @Description 決済セッション作成リクエスト（JSONまたはフォーム）
type CreatePaymentRequest struct {
	Provider string      `json:"provider" form:"provider" example:"bkash"`
	Amount   json.Number `json:"amount" form:"amount" swaggertype:"number" example:"1000"`
}

// CreatePaymentResponse 決済セッション作成レスポンス
// @Description 決済セッション作成レスポンス
type CreatePaymentResponse struct {
	SessionID     string `json:"sessionId" example:"sess_1714557600000"`
	TransactionID string `json:"tx" example:"TXN_1714557600000"`
	RedirectURL   string `json:"redirectUrl" example:"http://localhost:3000/api/payment/mock-gateway?sessionId=sess_1714557600000&tx=TXN_1714557600000&provider=bkash&amount=1000&sig=..."`
}

// GatewayErrorResponse ゲートウェイの署名エラー
// @Description ゲートウェイの署名エラー
type GatewayErrorResponse struct {
	Error string `json:"error" example:"Invalid signature"`
}

// confirmPage 確定結果ページの内容
type confirmPage struct {
	Message       string
	RedirectPath  string
	RedirectDelay string
	Note          string
}
