package handler

import "time"

// GenerateTokenRequest トークン生成リクエスト
// @Description トークン生成リクエスト
type GenerateTokenRequest struct {
	UserID string `json:"user_id" example:"1"`
}

// GenerateTokenResponse トークン生成レスポンス
// @Description トークン生成レスポンス
type GenerateTokenResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyX2lkIjoiMSJ9.signature"`
	ExpiresIn int64     `json:"expires_in" example:"86400"`
	TokenType string    `json:"token_type" example:"Bearer"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_signature"`
	Message string `json:"message" example:"invalid signature"`
}
