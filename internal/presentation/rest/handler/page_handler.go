package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"probaho-server/internal/domain/mfs"
	"probaho-server/internal/domain/wallet"
)

const pageTimeLayout = "2006-01-02 15:04"

type providerOption struct {
	Value string
	Name  string
}

type addMoneyPage struct {
	CreateAction string
	HistoryURL   string
	Providers    []providerOption
}

type walletView struct {
	Balance  string
	Currency string
}

type topUpRow struct {
	ID        string
	Provider  string
	Amount    string
	Status    string
	CreatedAt string
}

type transactionRow struct {
	Description string
	Type        string
	Amount      string
	Currency    string
	Status      string
	CreatedAt   string
}

type historyPage struct {
	Wallet       *walletView
	TopUps       []topUpRow
	Transactions []transactionRow
	AddMoneyURL  string
}

// PageHandler 入金画面と履歴画面のハンドラー
// 画面はトークンを持たないため既定ユーザーの台帳を表示する
type PageHandler struct {
	historyService HistoryService
	ledgers        LedgerProvider
	pages          *Pages
	defaultUserID  string
	loc            *time.Location
}

// NewPageHandler 新しいPageHandlerを作成
func NewPageHandler(historyService HistoryService, ledgers LedgerProvider, pages *Pages, defaultUserID string, loc *time.Location) *PageHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PageHandler{
		historyService: historyService,
		ledgers:        ledgers,
		pages:          pages,
		defaultUserID:  defaultUserID,
		loc:            loc,
	}
}

// AddMoney 入金画面（ゲートウェイのキャンセル先）
// @Summary 入金画面
// @Tags pages
// @Produce html
// @Success 200 {string} string "入金画面"
// @Router /add-money [get]
func (h *PageHandler) AddMoney(c echo.Context) error {
	providers := mfs.Providers()
	options := make([]providerOption, 0, len(providers))
	for _, p := range providers {
		options = append(options, providerOption{Value: p.String(), Name: p.DisplayName()})
	}
	return h.pages.renderOK(c, pageAddMoney, addMoneyPage{
		CreateAction: "/api/payment/create",
		HistoryURL:   "/history",
		Providers:    options,
	})
}

// History 履歴画面
// @Summary 入金記録と取引の履歴画面
// @Tags pages
// @Produce html
// @Success 200 {string} string "履歴画面"
// @Failure 500 {object} ErrorResponse "読み込み失敗"
// @Router /history [get]
func (h *PageHandler) History(c echo.Context) error {
	ctx := c.Request().Context()

	overview, err := h.historyService.GetOverview(ctx, h.defaultUserID)
	if err != nil {
		return err
	}
	book, err := h.ledgers.For(h.defaultUserID)
	if err != nil {
		return err
	}
	w, err := book.GetWallet(ctx)
	if err != nil {
		return err
	}

	page := historyPage{
		Wallet:       h.walletView(w),
		TopUps:       make([]topUpRow, 0, len(overview.TopUps)),
		Transactions: make([]transactionRow, 0, len(overview.Transactions)),
		AddMoneyURL:  "/add-money",
	}
	for _, t := range overview.TopUps {
		page.TopUps = append(page.TopUps, topUpRow{
			ID:        t.ID,
			Provider:  mfs.DisplayName(t.Provider),
			Amount:    t.Amount.StringFixed(2),
			Status:    t.Status,
			CreatedAt: t.CreatedAt.In(h.loc).Format(pageTimeLayout),
		})
	}
	for _, t := range overview.Transactions {
		page.Transactions = append(page.Transactions, transactionRow{
			Description: t.Description(),
			Type:        t.Type().String(),
			Amount:      t.Amount().StringFixed(2),
			Currency:    t.Currency(),
			Status:      t.Status().String(),
			CreatedAt:   t.CreatedAt().In(h.loc).Format(pageTimeLayout),
		})
	}
	return h.pages.renderOK(c, pageHistory, page)
}

func (h *PageHandler) walletView(w *wallet.Wallet) *walletView {
	if w == nil {
		return nil
	}
	return &walletView{
		Balance:  w.Balance().StringFixed(2),
		Currency: w.Currency(),
	}
}
