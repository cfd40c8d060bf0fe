// Package companion serves the public reply endpoint.
package companion

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/middleware"
	"github.com/zhouzirui/anchor/backend/internal/store"
	companionService "github.com/zhouzirui/anchor/backend/internal/service/companion"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// Handler 处理 /anchor-respond
type Handler struct {
	svc    *companionService.Service
	logger *zap.Logger
}

// New 创建回复处理器
func New(svc *companionService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("respond")}
}

// RegisterRoutes 注册回复路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/anchor-respond", h.handleRespond)
	r.Options("/anchor-respond", h.handleOptions)
}

type respondRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type respondResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Mood     string `json:"mood"`
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	middleware.WriteCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	middleware.WriteCORSHeaders(w)

	var payload respondRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondFailure(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := h.svc.Respond(r.Context(), payload.UserID, payload.Message)
	switch {
	case errors.Is(err, companionService.ErrEmptyMessage):
		utils.RespondFailure(w, http.StatusBadRequest, err.Error())
		return
	case err != nil && result.Reply == "":
		h.logger.Error("respond failed", zap.String("user_id", payload.UserID), zap.Error(err))
		utils.RespondFailure(w, http.StatusInternalServerError, err.Error())
		return
	case err != nil:
		// 回复已生成，仅存储失败
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			h.logger.Warn("reply not stored", zap.String("user_id", payload.UserID), zap.Error(err))
		}
	}

	utils.RespondJSON(w, http.StatusOK, respondResponse{
		Success:  true,
		Response: result.Reply,
		Mood:     string(result.Mood),
	})
}
