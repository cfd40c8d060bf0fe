// Package app assembles the services from configuration. Both the HTTP server and
// the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/config"
	"github.com/zhouzirui/anchor/backend/internal/handler"
	"github.com/zhouzirui/anchor/backend/internal/handler/account"
	"github.com/zhouzirui/anchor/backend/internal/metrics"
	"github.com/zhouzirui/anchor/backend/internal/realtime"
	"github.com/zhouzirui/anchor/backend/internal/service/ai"
	"github.com/zhouzirui/anchor/backend/internal/service/backup"
	"github.com/zhouzirui/anchor/backend/internal/service/companion"
	"github.com/zhouzirui/anchor/backend/internal/service/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
	"github.com/zhouzirui/anchor/backend/internal/store/memstore"
	"github.com/zhouzirui/anchor/backend/internal/store/sqlite"
	"github.com/zhouzirui/anchor/backend/internal/store/supabase"
)

// App holds every long-lived collaborator.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Collector
	Hub       *realtime.Hub
	Store     store.Store
	Companion *companion.Service
	Backup    *backup.Service
	Memories  *memory.Service
	Auth      auth.Chain
	Supabase  *auth.SupabaseAuthenticator
	JWT       *auth.JWTAuthenticator
}

// New builds the application. A missing or broken language model is not fatal:
// replies then come from the fallback table.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Hub:     realtime.NewHub(logger),
	}

	base, err := OpenStore(cfg.Store, cfg.Auth)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", zap.String("driver", string(cfg.Store.Driver)))
	a.Store = store.WithPublisher(base, a.Hub)

	gen, err := ai.NewGenerator(ctx, cfg.AI, logger)
	switch {
	case err != nil:
		logger.Warn("language model unavailable, using fallback replies", zap.Error(err))
		gen = nil
	case gen == nil:
		logger.Info("no language model configured, using fallback replies")
	default:
		logger.Info("language model ready", zap.String("provider", string(cfg.AI.Provider)))
	}

	synth := companion.NewSynthesizer(gen, companion.SynthesizerConfig{
		Options: ai.Options{MaxTokens: cfg.AI.MaxTokens, Temperature: cfg.AI.Temperature},
		Timeout: cfg.AI.Timeout,
	}, logger, a.Metrics)
	a.Companion = companion.NewService(a.Store, synth, cfg.Store.ContextTimeout, logger, a.Metrics)
	a.Backup = backup.NewService(a.Store, logger, a.Metrics)
	a.Memories = memory.NewService(a.Store, logger)

	a.Auth, a.Supabase, err = auth.Build(cfg.Auth)
	if err != nil {
		base.Close()
		return nil, err
	}
	a.JWT = auth.NewJWTAuthenticator(cfg.Auth.TokenSecret(), cfg.Auth.JWTIssuer)
	if len(a.Auth) == 0 {
		logger.Warn("no authentication backend configured, protected routes will reject every request")
	}

	return a, nil
}

// OpenStore opens the configured persistence driver.
func OpenStore(cfg config.StoreConfig, authCfg config.AuthConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSupabase:
		s, err := supabase.New(authCfg.SupabaseURL, authCfg.SupabaseServiceKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory, "":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Router builds the HTTP handler.
func (a *App) Router() http.Handler {
	var accounts account.Accounts
	if a.Supabase != nil {
		accounts = a.Supabase
	}
	return handler.NewRouter(handler.Deps{
		Companion:      a.Companion,
		Backup:         a.Backup,
		Memories:       a.Memories,
		Auth:           a.Auth,
		Accounts:       accounts,
		Hub:            a.Hub,
		Metrics:        a.Metrics,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		RequestTimeout: a.Config.Server.RequestTimeout,
		Logger:         a.Logger,
	})
}

// Close waits for pending backup patches and releases the store.
func (a *App) Close() error {
	a.Backup.Wait()
	return a.Store.Close()
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	a.Logger.Info("anchor backend listening", zap.String("addr", srv.Addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
