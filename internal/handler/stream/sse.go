package stream

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// handleSSE 为不支持 websocket 的客户端提供同样的推送
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.hub.Subscribe(user.ID)
	defer sub.Close()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, "connected", map[string]string{"userId": user.ID}); err != nil {
		return
	}

	ctx := r.Context()
	ticker := h.newTicker()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("sse closed", zap.String("user_id", user.ID))
			return
		case turn, ok := <-sub.C:
			if !ok {
				utils.SendSSEEvent(w, flusher, "dropped", map[string]string{"message": "subscriber fell behind"})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "turn", turn); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "ping"); err != nil {
				return
			}
		}
	}
}
