package payment

import "github.com/shopspring/decimal"

// CreateSessionRequest 決済セッション作成リクエスト
type CreateSessionRequest struct {
	Provider string
	Amount   decimal.Decimal
}

// CreateSessionResponse 決済セッション作成レスポンス
type CreateSessionResponse struct {
	SessionID     string
	TransactionID string
	RedirectURL   string
}

// GatewayRequest モックゲートウェイのクエリ（未指定は空文字）
type GatewayRequest struct {
	SessionID     string
	TransactionID string
	Provider      string
	Amount        string
	Signature     string
}

// GatewayPage 確認画面に表示する内容
type GatewayPage struct {
	SessionID     string
	TransactionID string
	Provider      string
	Amount        string
	Signature     string
	// ConfirmAction 確定フォームの送信先
	ConfirmAction string
	// CancelURL キャンセル時の戻り先
	CancelURL string
}

// ConfirmPaymentRequest 決済確定リクエスト
type ConfirmPaymentRequest struct {
	UserID        string
	SessionID     string
	TransactionID string
	Provider      string
	Amount        string
	Signature     string
	Status        string
}

// ConfirmPaymentResponse 決済確定レスポンス
type ConfirmPaymentResponse struct {
	TransactionID string
	Provider      string
	Amount        decimal.Decimal
	// RedirectPath 確定後の遷移先
	RedirectPath string
}

// CallbackRequest ゲートウェイのコールバック（未指定は空文字）
type CallbackRequest struct {
	UserID        string
	TransactionID string
	Provider      string
	Amount        string
	Status        string
}

// CallbackResponse コールバックの記録結果
type CallbackResponse struct {
	TransactionID string
	Provider      string
	Amount        decimal.Decimal
	Status        string
	RedirectPath  string
}
