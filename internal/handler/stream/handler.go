// Package stream pushes a user's new turns to live clients over websocket or SSE.
package stream

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/realtime"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Handler 实时对话推送
type Handler struct {
	hub          *realtime.Hub
	authn        auth.Authenticator
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// New creates a live feed handler. Browsers cannot set headers on a websocket
// handshake, so the token may also arrive as ?token=.
func New(hub *realtime.Hub, authn auth.Authenticator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:    hub,
		authn:  authn,
		logger: logger.Named("live"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
	}
}

// RegisterRoutes 注册 /live 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/live", h.handleWebSocket)
	r.Get("/live/sse", h.handleSSE)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if errors.Is(err, auth.ErrMissingToken) {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
		err = nil
		if token == "" {
			err = auth.ErrMissingToken
		}
	}
	if err != nil {
		msg := "Unauthorized"
		if errors.Is(err, auth.ErrMissingToken) {
			msg = "Missing authorization"
		}
		utils.RespondError(w, http.StatusUnauthorized, msg)
		return auth.User{}, false
	}

	user, err := h.authn.Authenticate(r.Context(), token)
	if err != nil {
		h.logger.Debug("live feed authentication failed", zap.Error(err))
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return auth.User{}, false
	}
	return user, true
}

func (h *Handler) newTicker() *time.Ticker {
	return time.NewTicker(h.pingInterval)
}
