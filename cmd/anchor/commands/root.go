// Package commands implements the anchor command line.
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/app"
	"github.com/zhouzirui/anchor/backend/internal/config"
	"github.com/zhouzirui/anchor/backend/internal/logging"
)

// appLoader builds the application from the given dotenv file; tests swap it for an in-memory one.
type appLoader func(ctx context.Context, envFile string) (*app.App, error)

// appFactory is an appLoader bound to the --env-file flag of one command tree.
type appFactory func(ctx context.Context) (*app.App, error)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(loadApp)
}

func newRootCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Anchor, a mood-aware companion",
		Long: `Anchor listens, notices how you feel, and answers in kind.

Run the HTTP backend with "anchor serve" or talk to it directly with
"anchor chat --user <id>".`,
		SilenceUsage: true,
	}
	var envFile string
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	factory := func(ctx context.Context) (*app.App, error) {
		return load(ctx, envFile)
	}
	cmd.AddCommand(
		newServeCmd(factory),
		newChatCmd(factory),
		newExportCmd(factory),
		newSummaryCmd(factory),
		newClassifyCmd(),
		newTokenCmd(&envFile),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig(envFile string) (*config.Config, error) {
	// 缺少 .env 不是错误
	_ = godotenv.Load(envFile)
	return config.Load()
}

func loadApp(ctx context.Context, envFile string) (*app.App, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return app.New(ctx, cfg, logger)
}
