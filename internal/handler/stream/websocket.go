package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 推送新对话直到客户端断开或订阅被丢弃
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(user.ID)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.readLoop(conn, cancel)

	h.logger.Debug("websocket subscribed", zap.String("user_id", user.ID))
	if err := h.send(conn, "connected", map[string]string{"userId": user.ID}); err != nil {
		return
	}

	ticker := h.newTicker()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case turn, ok := <-sub.C:
			if !ok {
				h.send(conn, "dropped", map[string]string{"message": "subscriber fell behind"})
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "slow consumer"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.send(conn, "turn", turn); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop 只负责处理控制帧，客户端发来的数据帧直接丢弃
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, kind string, data interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(outgoingMessage{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		h.logger.Debug("websocket write failed", zap.String("type", kind), zap.Error(err))
	}
	return err
}
