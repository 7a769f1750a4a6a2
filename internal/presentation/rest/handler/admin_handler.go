package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"probaho-server/internal/domain/wallet"
)

// AdminHandler 管理者向けハンドラー
type AdminHandler struct {
	ledgers LedgerProvider
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(ledgers LedgerProvider) *AdminHandler {
	return &AdminHandler{ledgers: ledgers}
}

// GetUserWallet 指定ユーザーのウォレットを取得
// @Summary ユーザーのウォレットを取得（管理者用）
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "ユーザーID"
// @Success 200 {object} object "ウォレット"
// @Failure 404 {object} ErrorResponse "ウォレットなし"
// @Router /admin/users/{userId}/wallet [get]
func (h *AdminHandler) GetUserWallet(c echo.Context) error {
	book, err := h.ledgers.For(c.Param("userId"))
	if err != nil {
		return err
	}
	w, err := book.GetWallet(c.Request().Context())
	if err != nil {
		return err
	}
	if w == nil {
		return wallet.ErrWalletNotFound
	}
	return c.JSON(http.StatusOK, w)
}

// ClearUserData 指定ユーザーの台帳データを全て削除
// @Summary ユーザーの台帳データを削除（管理者用）
// @Tags admin
// @Security ApiKeyAuth
// @Param userId path string true "ユーザーID"
// @Success 204 "削除成功"
// @Failure 400 {object} ErrorResponse "不正なユーザーID"
// @Router /admin/users/{userId}/data [delete]
func (h *AdminHandler) ClearUserData(c echo.Context) error {
	book, err := h.ledgers.For(c.Param("userId"))
	if err != nil {
		return err
	}
	if err := book.ClearAllData(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
