// Package account exposes email/password sign-up, sign-in and sign-out.
package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// Accounts is the identity provider behind the auth routes.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (auth.Session, error)
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Handler 账户相关的HTTP处理器
type Handler struct {
	accounts Accounts
	validate *validator.Validate
	logger   *zap.Logger
}

// New 创建账户处理器。accounts 为 nil 时所有路由返回 503。
func New(accounts Accounts, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		accounts: accounts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("account"),
	}
}

// RegisterRoutes 注册 /auth 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignUp)
		r.Post("/signin", h.handleSignIn)
		r.Post("/signout", h.handleSignOut)
	})
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	if h.accounts == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "accounts are not configured")
		return credentials{}, false
	}

	var creds credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return credentials{}, false
	}
	if err := h.validate.Struct(creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "a valid email and a password of at least 6 characters are required")
		return credentials{}, false
	}
	return creds, true
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.accounts.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.logger.Info("sign up rejected", zap.Error(err))
		utils.RespondError(w, http.StatusBadRequest, "sign up failed")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.accounts.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.logger.Info("sign in rejected", zap.Error(err))
		utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "accounts are not configured")
		return
	}

	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		msg := "Unauthorized"
		if errors.Is(err, auth.ErrMissingToken) {
			msg = "Missing authorization"
		}
		utils.RespondError(w, http.StatusUnauthorized, msg)
		return
	}

	if err := h.accounts.SignOut(r.Context(), token); err != nil {
		h.logger.Warn("sign out failed", zap.Error(err))
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
