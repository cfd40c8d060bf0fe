package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/handler/account"
	"github.com/zhouzirui/anchor/backend/internal/handler/backup"
	"github.com/zhouzirui/anchor/backend/internal/handler/chat"
	"github.com/zhouzirui/anchor/backend/internal/handler/companion"
	"github.com/zhouzirui/anchor/backend/internal/handler/memory"
	"github.com/zhouzirui/anchor/backend/internal/handler/stream"
	"github.com/zhouzirui/anchor/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/anchor/backend/internal/middleware"
	"github.com/zhouzirui/anchor/backend/internal/realtime"
	backupService "github.com/zhouzirui/anchor/backend/internal/service/backup"
	companionService "github.com/zhouzirui/anchor/backend/internal/service/companion"
	memoryService "github.com/zhouzirui/anchor/backend/internal/service/memory"
	"github.com/zhouzirui/anchor/backend/pkg/utils"
)

// Deps 是路由依赖的服务集合。Accounts 与 Metrics 可以为 nil，RequestTimeout 为 0 表示不限时。
type Deps struct {
	Companion      *companionService.Service
	Backup         *backupService.Service
	Memories       *memoryService.Service
	Auth           auth.Authenticator
	Accounts       account.Accounts
	Hub            *realtime.Hub
	Metrics        *metrics.Collector
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Auth == nil {
		d.Auth = auth.Chain{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(d.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	timeout := func(next http.Handler) http.Handler { return next }
	if d.RequestTimeout > 0 {
		timeout = middleware.Timeout(d.RequestTimeout)
	}

	// 与原边缘函数保持相同的路径
	r.Group(func(edge chi.Router) {
		edge.Use(timeout)
		companion.New(d.Companion, logger).RegisterRoutes(edge)
		backup.New(d.Backup, d.Auth, logger).RegisterRoutes(edge)
	})

	r.Route("/api", func(api chi.Router) {
		// 长连接不受请求超时限制；websocket 握手无法携带 header，由 stream 自己认证
		if d.Hub != nil {
			stream.New(d.Hub, d.Auth, logger).RegisterRoutes(api)
		}

		api.Group(func(public chi.Router) {
			public.Use(timeout)
			account.New(d.Accounts, logger).RegisterRoutes(public)
		})

		api.Group(func(private chi.Router) {
			private.Use(timeout)
			private.Use(auth.RequireUser(d.Auth, logger))
			chat.New(d.Companion, logger).RegisterRoutes(private)
			memory.New(d.Memories, logger).RegisterRoutes(private)
		})
	})

	return r
}
