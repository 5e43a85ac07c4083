// Package cmd defines the docs-translator command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/api"
	"github.com/JakeFAU/docs-translator/internal/app"
	"github.com/JakeFAU/docs-translator/internal/config"
	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/logging"
	"github.com/JakeFAU/docs-translator/internal/pipeline"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the set of services the commands use. Tests inject their own.
type App interface {
	Logger() *zap.Logger
	Config() config.Config
	Blobs() crawler.BlobStore
	Crawler() (*crawler.Crawler, error)
	Pipeline() (*pipeline.Orchestrator, error)
	APIServer() *api.Server
	Close(ctx context.Context)
}

// newApp is the application factory; a variable so tests can swap it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "docs-translator",
		Short: "Crawl documentation sites and translate them with generative AI.",
		Long: `docs-translator crawls a documentation site from a root URL, caches every
page, orders the pages by directory and then summarizes, translates and
indexes each one for search.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewWithConfig(logging.Config{
				Development: cfg.Logging.Development,
				File:        cfg.Logging.File,
				MaxSizeMB:   cfg.Logging.MaxSizeMB,
				MaxBackups:  cfg.Logging.MaxBackups,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.AddCommand(newCrawlCmd(), newServeCmd())
	return cmd
}

func appFrom(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// withApp adapts fn to a RunE. The App is closed and the logger synced
// whether or not fn succeeds, and a failure is logged before it is returned.
func withApp(fn func(cmd *cobra.Command, args []string, a App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		appInstance, err := appFrom(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			appInstance.Close(context.WithoutCancel(cmd.Context()))
			_ = appInstance.Logger().Sync()
		}()
		if err := fn(cmd, args, appInstance); err != nil {
			appInstance.Logger().Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
