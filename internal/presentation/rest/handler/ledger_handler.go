package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/profile"
	"probaho-server/internal/domain/transaction"
	"probaho-server/internal/domain/wallet"
	restmiddleware "probaho-server/internal/presentation/rest/middleware"
)

// LedgerProvider ユーザーごとの台帳を返す
type LedgerProvider interface {
	For(userID string) (*ledger.Service, error)
}

// LedgerHandler ウォレット・取引・プロフィールのハンドラー
type LedgerHandler struct {
	ledgers LedgerProvider
}

// NewLedgerHandler 新しいLedgerHandlerを作成
func NewLedgerHandler(ledgers LedgerProvider) *LedgerHandler {
	return &LedgerHandler{ledgers: ledgers}
}

func (h *LedgerHandler) book(c echo.Context) (*ledger.Service, error) {
	return userLedger(c, h.ledgers)
}

// userLedger トークンのユーザーの台帳を返す
func userLedger(c echo.Context, ledgers LedgerProvider) (*ledger.Service, error) {
	userID, ok := restmiddleware.UserID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}
	return ledgers.For(userID)
}

// GetWallet ウォレット取得ハンドラー
// @Summary ウォレットを取得
// @Tags wallet
// @Produce json
// @Security Bearer
// @Success 200 {object} object "ウォレット"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "ウォレットなし"
// @Router /api/v1/wallet [get]
func (h *LedgerHandler) GetWallet(c echo.Context) error {
	book, err := h.book(c)
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

// PutWallet ウォレット保存ハンドラー
// @Summary ウォレットを保存
// @Description 保存形式のウォレットをそのまま受け取り、検証して保存します
// @Tags wallet
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body object true "ウォレット"
// @Success 200 {object} object "保存したウォレット"
// @Failure 400 {object} ErrorResponse "無効なウォレット"
// @Router /api/v1/wallet [put]
func (h *LedgerHandler) PutWallet(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	w, err := wallet.Decode(body)
	if err != nil {
		return err
	}
	if w.UserID() != book.UserID() {
		return fmt.Errorf("%w: userId does not match token", wallet.ErrInvalidWallet)
	}
	if err := book.SetWallet(c.Request().Context(), w); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

// AddTransaction トランザクション追加ハンドラー
// @Summary トランザクションを追加
// @Description 成功ステータスの場合は残高に反映されます
// @Tags transactions
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body AddTransactionRequest true "トランザクション"
// @Success 201 {object} object "追加したトランザクション"
// @Failure 400 {object} ErrorResponse "無効なトランザクション"
// @Router /api/v1/transactions [post]
func (h *LedgerHandler) AddTransaction(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	var req AddTransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	t, err := book.AddTransaction(c.Request().Context(), transaction.Draft{
		UserID:       book.UserID(),
		Type:         transaction.TransactionType(req.Type),
		Amount:       amount,
		Currency:     req.Currency,
		Status:       transaction.TransactionStatus(req.Status),
		Description:  req.Description,
		MFSProvider:  req.MFSProvider,
		RecipientMFS: req.RecipientMFS,
		Account:      req.Account,
		Note:         req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// GetDailyStats 本日分の集計ハンドラー
// @Summary 本日の送金・受取額を取得
// @Tags stats
// @Produce json
// @Security Bearer
// @Success 200 {object} DailyStatsResponse "集計"
// @Router /api/v1/stats/daily [get]
func (h *LedgerHandler) GetDailyStats(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	stats, err := book.GetDailyStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DailyStatsResponse{
		Sent:         json.Number(stats.Sent.String()),
		Received:     json.Number(stats.Received.String()),
		Transactions: stats.Transactions,
	})
}

// AddMoney 入金ハンドラー
// @Summary MFSから入金
// @Description プロバイダーごとの上限と日次上限を検証して入金を記録します
// @Tags transfer
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body AddMoneyRequest true "入金リクエスト"
// @Success 201 {object} object "記録したトランザクション"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 409 {object} ErrorResponse "日次上限超過"
// @Router /api/v1/add-money [post]
func (h *LedgerHandler) AddMoney(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	var req AddMoneyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	t, err := book.AddMoney(c.Request().Context(), ledger.AddMoneyRequest{
		Provider:  req.Provider,
		Account:   req.Account,
		Amount:    amount,
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// SendMoney 送金ハンドラー
// @Summary MFSへ送金
// @Description 手数料（1.5%、最低5 BDT）込みで残高から引きます
// @Tags transfer
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SendMoneyRequest true "送金リクエスト"
// @Success 201 {object} SendMoneyResponse "送金結果"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 404 {object} ErrorResponse "ウォレットなし"
// @Failure 409 {object} ErrorResponse "残高不足"
// @Router /api/v1/send-money [post]
func (h *LedgerHandler) SendMoney(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	var req SendMoneyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	t, result, err := book.SendMoney(c.Request().Context(), ledger.SendMoneyRequest{
		RecipientMFS: req.RecipientMFS,
		Account:      req.Account,
		Amount:       amount,
		Note:         req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, SendMoneyResponse{
		Transaction: t,
		Fee:         json.Number(result.Fee.String()),
		Total:       json.Number(result.Total.String()),
	})
}

// GetSettings 設定取得ハンドラー
// @Summary 設定を取得
// @Tags profile
// @Produce json
// @Security Bearer
// @Success 200 {object} SettingsRequest "設定"
// @Router /api/v1/settings [get]
func (h *LedgerHandler) GetSettings(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	settings, err := book.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// PutSettings 設定保存ハンドラー
// @Summary 設定を保存
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body SettingsRequest true "設定"
// @Success 200 {object} SettingsRequest "保存した設定"
// @Failure 400 {object} ErrorResponse "無効な設定"
// @Router /api/v1/settings [put]
func (h *LedgerHandler) PutSettings(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	var settings profile.Settings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := book.SetSettings(c.Request().Context(), settings); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// GetUser ユーザー情報取得ハンドラー
// @Summary ユーザー情報を取得
// @Tags profile
// @Produce json
// @Security Bearer
// @Success 200 {object} object "ユーザー情報"
// @Failure 404 {object} ErrorResponse "未登録"
// @Router /api/v1/user [get]
func (h *LedgerHandler) GetUser(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	user, err := book.GetUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// PutUser ユーザー情報保存ハンドラー
// @Summary ユーザー情報を保存
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UserRequest true "ユーザー情報"
// @Success 200 {object} object "保存したユーザー情報"
// @Failure 400 {object} ErrorResponse "無効なユーザー情報"
// @Router /api/v1/user [put]
func (h *LedgerHandler) PutUser(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	user := profile.User{
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsVerified:  req.IsVerified,
	}
	// 既存の登録日時を引き継ぐ
	if existing, err := book.GetUser(ctx); err == nil {
		user.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, profile.ErrUserNotFound) {
		return err
	}

	saved, err := book.SetUser(ctx, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

// ClearData 全データ削除ハンドラー
// @Summary 自分の台帳データをすべて削除
// @Tags profile
// @Security Bearer
// @Success 204 "削除成功"
// @Router /api/v1/data [delete]
func (h *LedgerHandler) ClearData(c echo.Context) error {
	book, err := h.book(c)
	if err != nil {
		return err
	}
	if err := book.ClearAllData(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// parseAmount リクエストの金額を解析（範囲の検証はドメイン側）
func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, echo.NewHTTPError(http.StatusBadRequest, "amount is required")
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
	}
	return d, nil
}
