package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "probaho-server/internal/application/auth"
)

// AuthHandler 認証関連ハンドラー
type AuthHandler struct {
	authService *authapp.AuthApplicationService
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService *authapp.AuthApplicationService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// GenerateToken トークン生成ハンドラー
// @Summary 認証トークンを生成
// @Description ユーザーIDを元にJWT認証トークンを生成します
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GenerateTokenRequest true "トークン生成リクエスト"
// @Success 200 {object} GenerateTokenResponse "トークン生成成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /api/v1/auth/token [post]
func (h *AuthHandler) GenerateToken(c echo.Context) error {
	var req GenerateTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.authService.GenerateToken(c.Request().Context(), &authapp.GenerateTokenRequest{
		UserID: req.UserID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, GenerateTokenResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
		ExpiresAt: resp.ExpiresAt,
	})
}
