package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"probaho-server/internal/application/ledger"
	"probaho-server/internal/domain/storage"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
	eventsReadLimit  = 512
	eventsBufferSize = 32
)

// LedgerEvent WebSocketで配信する台帳の変更
type LedgerEvent struct {
	UserID  string          `json:"userId"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// EventsHandler 台帳の変更をWebSocketで配信するハンドラー
type EventsHandler struct {
	ledgers  LedgerProvider
	logger   *otelinfra.Logger
	upgrader websocket.Upgrader
}

// NewEventsHandler 新しいEventsHandlerを作成
func NewEventsHandler(ledgers LedgerProvider, logger *otelinfra.Logger) *EventsHandler {
	return &EventsHandler{
		ledgers: ledgers,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream 台帳の変更通知ストリーム
// @Summary 台帳の変更をWebSocketで購読
// @Description トークンは Authorization ヘッダーまたは access_token クエリで渡す
// @Tags events
// @Security Bearer
// @Success 101 {object} LedgerEvent "変更通知"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /api/v1/events [get]
func (h *EventsHandler) Stream(c echo.Context) error {
	book, err := userLedger(c, h.ledgers)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	// 購読はUpgradeより前に行う
	events := make(chan LedgerEvent, eventsBufferSize)
	for _, key := range storage.AllKeys() {
		unsubscribe := book.Subscribe(key, func(n ledger.Notification) {
			select {
			case events <- LedgerEvent{UserID: n.UserID, Key: n.Key.String(), Payload: n.Payload}:
			default:
				h.logger.Warn(ctx, "Dropping ledger event for slow subscriber", map[string]interface{}{
					"user_id": n.UserID,
					"key":     n.Key.String(),
				})
			}
		})
		defer unsubscribe()
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade がエラーレスポンスを書き込み済み
		h.logger.Warn(ctx, "WebSocket upgrade failed", map[string]interface{}{
			"user_id": book.UserID(),
			"error":   err.Error(),
		})
		return nil
	}
	defer conn.Close()

	h.logger.Info(ctx, "Ledger event stream opened", map[string]interface{}{
		"user_id": book.UserID(),
	})

	done := make(chan struct{})
	go readUntilClosed(conn, done)

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.Info(ctx, "Ledger event stream closed", map[string]interface{}{
				"user_id": book.UserID(),
			})
			return nil
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Warn(ctx, "Failed to write ledger event", map[string]interface{}{
					"user_id": book.UserID(),
					"error":   err.Error(),
				})
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// readUntilClosed クライアントからのメッセージを読み捨て、切断されたらdoneを閉じる
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(eventsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
