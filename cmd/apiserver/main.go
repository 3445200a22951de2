// Command apiserver serves the fluoro HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: FLUORO_* environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Log.ToLogging())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting fluoro API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("inference", cfg.Inference.Endpoint),
		logging.String("session_backend", cfg.Session.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if configPath != "" {
		config.Watch(configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level updated", logging.String("level", next.Log.Level))
			}
		}, func(err error) {
			logger.Warn("config reload rejected", logging.Err(err))
		})
	}

	ln, err := app.server.Listen()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx, ln)
	})
	if app.sweeper != nil {
		g.Go(func() error {
			return app.sweeper.Run(gctx, cfg.Session.SweepSchedule)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("API server exited with error", logging.Err(err))
		return err
	}
	logger.Info("API server stopped")
	return nil
}
