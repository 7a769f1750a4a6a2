package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "probaho-server/internal/application/history"
	restmiddleware "probaho-server/internal/presentation/rest/middleware"
)

// HistoryService 履歴のアプリケーションサービス
type HistoryService interface {
	GetTransactionHistory(ctx context.Context, req *historyapp.GetTransactionHistoryRequest) (*historyapp.GetTransactionHistoryResponse, error)
	GetOverview(ctx context.Context, userID string) (*historyapp.Overview, error)
}

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService HistoryService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetTransactionHistory トランザクション履歴取得ハンドラー（ユーザーAPI用）
// @Summary トランザクション履歴を取得
// @Description 自分のトランザクション履歴を取得します。ページネーションとフィルタリングに対応しています
// @Tags transactions
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0)
// @Param type query string false "タイプでフィルタ（credit/debit）"
// @Param status query string false "ステータスでフィルタ（pending/success/failed）"
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /api/v1/transactions [get]
func (h *HistoryHandler) GetTransactionHistory(c echo.Context) error {
	userID, ok := restmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	return h.getTransactionHistoryInternal(c, userID)
}

// GetTransactionHistoryAdmin トランザクション履歴取得ハンドラー（管理API用）
// @Summary トランザクション履歴を取得（管理API）
// @Description 指定されたユーザーのトランザクション履歴を取得します
// @Tags admin
// @Produce json
// @Param userId path string true "ユーザーID"
// @Param X-API-Key header string true "APIキー"
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0)
// @Param type query string false "タイプでフィルタ（credit/debit）"
// @Param status query string false "ステータスでフィルタ（pending/success/failed）"
// @Success 200 {object} TransactionHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{userId}/transactions [get]
func (h *HistoryHandler) GetTransactionHistoryAdmin(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	return h.getTransactionHistoryInternal(c, userID)
}

// getTransactionHistoryInternal トランザクション履歴取得の内部実装
// 上限を超えるlimitはサービス側で丸める
func (h *HistoryHandler) getTransactionHistoryInternal(c echo.Context, userID string) error {
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}

	resp, err := h.historyService.GetTransactionHistory(c.Request().Context(), &historyapp.GetTransactionHistoryRequest{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
		Type:   c.QueryParam("type"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TransactionHistoryResponse{
		Transactions: resp.Transactions,
		Total:        resp.Total,
		Limit:        resp.Limit,
		Offset:       resp.Offset,
	})
}
