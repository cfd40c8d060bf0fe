package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	companionService "github.com/zhouzirui/anchor/backend/internal/service/companion"
	"github.com/zhouzirui/anchor/backend/internal/store"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handler 会话相关的HTTP处理器，路由需挂在 RequireUser 之后
type Handler struct {
	svc    *companionService.Service
	logger *zap.Logger
}

// New 创建聊天处理器
func New(svc *companionService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("chat")}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations", h.handleHistory)
	r.Post("/messages", h.handleSend)
	r.Get("/mood-summary", h.handleSummary)
}

type historyResponse struct {
	Turns []chat.Turn `json:"turns"`
}

// handleHistory 返回最近的对话，按时间正序
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	turns, err := h.svc.History(r.Context(), user.ID, limit)
	if err != nil {
		h.storeFailure(w, "history", user.ID, err)
		return
	}
	if turns == nil {
		turns = []chat.Turn{}
	}
	utils.RespondJSON(w, http.StatusOK, historyResponse{Turns: turns})
}

// handleSend 保存用户消息并生成回复
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exchange, err := h.svc.Send(r.Context(), user.ID, payload.Content)
	switch {
	case errors.Is(err, companionService.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil && exchange.User.ID == "":
		h.storeFailure(w, "send", user.ID, err)
		return
	case err != nil:
		h.logger.Warn("reply not stored", zap.String("user_id", user.ID), zap.Error(err))
	}

	utils.RespondJSON(w, http.StatusCreated, exchange)
}

// handleSummary 返回用户消息的情绪分布
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	summary, err := h.svc.Summary(r.Context(), user.ID)
	if err != nil {
		h.storeFailure(w, "summary", user.ID, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"summary":  summary,
		"sentence": summary.Sentence(),
	})
}

func (h *Handler) storeFailure(w http.ResponseWriter, op, userID string, err error) {
	h.logger.Error(op+" failed", zap.String("user_id", userID), zap.Error(err))
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrUserRequired) {
		status = http.StatusBadRequest
	}
	utils.RespondError(w, status, "storage unavailable")
}
