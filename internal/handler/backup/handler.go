// Package backup serves the memory export endpoint.
package backup

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/middleware"
	backupService "github.com/zhouzirui/anchor/backend/internal/service/backup"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// Handler 处理 /backup-memories
type Handler struct {
	svc    *backupService.Service
	authn  auth.Authenticator
	logger *zap.Logger
}

// New 创建备份处理器
func New(svc *backupService.Service, authn auth.Authenticator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, authn: authn, logger: logger.Named("backup")}
}

// RegisterRoutes 注册备份路由，POST 需要 bearer 认证
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Options("/backup-memories", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteCORSHeaders(w)
		w.WriteHeader(http.StatusOK)
	})
	r.With(auth.RequireUser(h.authn, h.logger)).Post("/backup-memories", h.handleBackup)
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	middleware.WriteCORSHeaders(w)

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload struct {
		Format string `json:"format"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		h.logger.Debug("ignoring unreadable backup body", zap.Error(err))
	}

	file, err := h.svc.Backup(r.Context(), user.ID, backupService.ParseFormat(payload.Format))
	if err != nil {
		h.logger.Error("backup failed", zap.String("user_id", user.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "Backup failed")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to write backup", zap.Error(err))
	}
}
