// Package memory serves the memory collection under /api/memories.
package memory

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	model "github.com/zhouzirui/anchor/backend/internal/model/memory"
	memoryService "github.com/zhouzirui/anchor/backend/internal/service/memory"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// Handler 回忆的HTTP处理器
type Handler struct {
	svc    *memoryService.Service
	logger *zap.Logger
}

// New 创建回忆处理器
func New(svc *memoryService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("memories")}
}

// RegisterRoutes 注册回忆路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/memories", h.handleList)
	r.Post("/memories", h.handleCreate)
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var draft model.Draft
	if err := utils.DecodeJSON(r, &draft); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), user.ID, draft)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			utils.RespondJSON(w, http.StatusBadRequest, validationResponse{Error: "invalid memory", Fields: verr.Fields})
			return
		}
		h.logger.Error("create memory failed", zap.String("user_id", user.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	memories, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list memories failed", zap.String("user_id", user.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if memories == nil {
		memories = []model.Memory{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"memories": memories})
}
