package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	paymentapp "probaho-server/internal/application/payment"
	"probaho-server/internal/domain/payment_session"
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
)

const (
	confirmSuccessMessage = "Payment confirmed! Redirecting..."
	confirmFailureMessage = "Failed to record payment. Please contact support."
	// confirmRedirectDelay 履歴画面へ移るまでの秒数
	confirmRedirectDelay = "1.2"
	confirmNote          = "This simulates server confirmation for gateway payment."

	callbackSuccessMessage = "Payment processed successfully! Redirecting..."
	callbackFailureMessage = "Failed to save payment. Please contact support."
	callbackRedirectDelay  = "1.5"
	callbackNote           = "This simulates the gateway callback flow for development."

	invalidSignatureBody = "Invalid signature"
)

// PaymentService 決済フローのアプリケーションサービス
type PaymentService interface {
	CreateSession(ctx context.Context, req *paymentapp.CreateSessionRequest) (*paymentapp.CreateSessionResponse, error)
	VerifyGateway(ctx context.Context, req *paymentapp.GatewayRequest) (*paymentapp.GatewayPage, error)
	ConfirmPayment(ctx context.Context, req *paymentapp.ConfirmPaymentRequest) (*paymentapp.ConfirmPaymentResponse, error)
	RecordCallback(ctx context.Context, req *paymentapp.CallbackRequest) (*paymentapp.CallbackResponse, error)
}

// PaymentHandler モック決済ゲートウェイのハンドラー
type PaymentHandler struct {
	paymentService PaymentService
	pages          *Pages
}

// NewPaymentHandler 新しいPaymentHandlerを作成
func NewPaymentHandler(paymentService PaymentService, pages *Pages) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		pages:          pages,
	}
}

// CreateSession 決済セッション作成ハンドラー
// @Summary 決済セッションを作成
// @Description プロバイダーと金額に署名し、モックゲートウェイへのURLを返します。フォーム送信の場合はゲートウェイへリダイレクトします
// @Tags payment
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param request body CreatePaymentRequest false "決済セッション作成リクエスト"
// @Success 200 {object} CreatePaymentResponse "作成成功"
// @Success 303 "フォーム送信時はゲートウェイへリダイレクト"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /api/payment/create [post]
func (h *PaymentHandler) CreateSession(c echo.Context) error {
	var reqBody CreatePaymentRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount := decimal.Zero
	if reqBody.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(reqBody.Amount.String())
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
		}
	}

	resp, err := h.paymentService.CreateSession(c.Request().Context(), &paymentapp.CreateSessionRequest{
		Provider: reqBody.Provider,
		Amount:   amount,
	})
	if err != nil {
		return err
	}

	if isFormRequest(c) {
		return c.Redirect(http.StatusSeeOther, resp.RedirectURL)
	}
	return c.JSON(http.StatusOK, CreatePaymentResponse{
		SessionID:     resp.SessionID,
		TransactionID: resp.TransactionID,
		RedirectURL:   resp.RedirectURL,
	})
}

// MockGateway モックゲートウェイハンドラー
// @Summary モックゲートウェイの確認画面
// @Description 署名を検証し、一致すれば確認画面（HTML）を返します
// @Tags payment
// @Produce html
// @Produce json
// @Param sessionId query string false "セッションID"
// @Param tx query string false "トランザクションID"
// @Param provider query string false "プロバイダー" default(bkash)
// @Param amount query string false "金額" default(0)
// @Param sig query string false "署名（HMAC-SHA256の16進）"
// @Success 200 {string} string "確認画面"
// @Failure 400 {object} GatewayErrorResponse "署名不一致"
// @Router /api/payment/mock-gateway [get]
func (h *PaymentHandler) MockGateway(c echo.Context) error {
	page, err := h.paymentService.VerifyGateway(c.Request().Context(), &paymentapp.GatewayRequest{
		SessionID:     c.QueryParam("sessionId"),
		TransactionID: c.QueryParam("tx"),
		Provider:      c.QueryParam("provider"),
		Amount:        c.QueryParam("amount"),
		Signature:     c.QueryParam("sig"),
	})
	if err != nil {
		if errors.Is(err, payment_session.ErrInvalidSignature) {
			return c.JSON(http.StatusBadRequest, GatewayErrorResponse{Error: invalidSignatureBody})
		}
		return err
	}

	return h.pages.renderOK(c, pageGateway, page)
}

// Confirm 決済確定ハンドラー
// @Summary 決済を確定
// @Description ゲートウェイから戻った入金を台帳に記録し、結果画面（HTML）を返します
// @Tags payment
// @Produce html
// @Param sessionId query string false "セッションID"
// @Param tx query string false "トランザクションID"
// @Param provider query string false "プロバイダー" default(unknown)
// @Param amount query string false "金額" default(0)
// @Param sig query string false "署名"
// @Param status query string false "ゲートウェイのステータス（未使用）"
// @Success 200 {string} string "確定画面（履歴へリダイレクト）"
// @Failure 400 {string} string "金額または署名が不正"
// @Failure 409 {string} string "確定済みのトランザクション"
// @Failure 500 {string} string "記録に失敗"
// @Router /add-money/confirm [get]
func (h *PaymentHandler) Confirm(c echo.Context) error {
	resp, err := h.paymentService.ConfirmPayment(c.Request().Context(), &paymentapp.ConfirmPaymentRequest{
		SessionID:     c.QueryParam("sessionId"),
		TransactionID: c.QueryParam("tx"),
		Provider:      c.QueryParam("provider"),
		Amount:        c.QueryParam("amount"),
		Signature:     c.QueryParam("sig"),
		Status:        c.QueryParam("status"),
	})
	if err != nil {
		return h.pages.Render(c, confirmFailureStatus(err), pageConfirm, confirmPage{
			Message: confirmFailureMessage,
			Note:    confirmNote,
		})
	}

	return h.pages.renderOK(c, pageConfirm, confirmPage{
		Message:       confirmSuccessMessage,
		RedirectPath:  resp.RedirectPath,
		RedirectDelay: confirmRedirectDelay,
		Note:          confirmNote,
	})
}

// Callback ゲートウェイのコールバックハンドラー
// @Summary ゲートウェイのコールバックを記録
// @Description 入金記録だけを残し（残高は変更しない）、結果画面（HTML）を返します
// @Tags payment
// @Produce html
// @Param tx query string false "トランザクションID（未指定は採番）"
// @Param provider query string false "プロバイダー" default(unknown)
// @Param amount query string false "金額" default(0)
// @Param status query string false "ゲートウェイのステータス" default(failed)
// @Success 200 {string} string "記録完了画面（履歴へリダイレクト）"
// @Failure 400 {string} string "金額が不正"
// @Failure 500 {string} string "記録に失敗"
// @Router /add-money/callback [get]
func (h *PaymentHandler) Callback(c echo.Context) error {
	resp, err := h.paymentService.RecordCallback(c.Request().Context(), &paymentapp.CallbackRequest{
		TransactionID: c.QueryParam("tx"),
		Provider:      c.QueryParam("provider"),
		Amount:        c.QueryParam("amount"),
		Status:        c.QueryParam("status"),
	})
	if err != nil {
		return h.pages.Render(c, confirmFailureStatus(err), pageConfirm, confirmPage{
			Message: callbackFailureMessage,
			Note:    callbackNote,
		})
	}

	return h.pages.renderOK(c, pageConfirm, confirmPage{
		Message:       callbackSuccessMessage,
		RedirectPath:  resp.RedirectPath,
		RedirectDelay: callbackRedirectDelay,
		Note:          callbackNote,
	})
}

// confirmFailureStatus 確定失敗時のステータスコード
func confirmFailureStatus(err error) int {
	switch {
	case errors.Is(err, payment_session.ErrInvalidAmount),
		errors.Is(err, payment_session.ErrInvalidSignature),
		errors.Is(err, transaction.ErrInvalidTransaction):
		return http.StatusBadRequest
	case errors.Is(err, topup.ErrDuplicateTopUp):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isFormRequest(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}
