// Package main is the entry point for the Locker Pass Manager server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/locker-pass-manager/backend/internal/api"
	"github.com/locker-pass-manager/backend/internal/auth"
	"github.com/locker-pass-manager/backend/internal/clock"
	"github.com/locker-pass-manager/backend/internal/config"
	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/logging"
	"github.com/locker-pass-manager/backend/internal/metrics"
	"github.com/locker-pass-manager/backend/internal/pin"
	"github.com/locker-pass-manager/backend/internal/storage"
	"github.com/locker-pass-manager/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "locker-pass-manager",
		Short:        "Serves the locker rental API",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newHealthCheckCmd())
	return cmd
}

// newHealthCheckCmd checks a running server, for container HEALTHCHECKs.
func newHealthCheckCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the health endpoint of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthCheck(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8099", "HTTP server address")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	logCfg := logging.Config{Level: cfg.LogLevel, Dev: cfg.LogDev}
	if cfg.LogFile != "" {
		logCfg.File = logging.DefaultFileConfig(cfg.LogFile)
	}
	base, closeLog, err := logging.Init(logCfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer closeLog()
	defer base.Sync()
	logger := base.Sugar()

	logger.Infow("starting locker pass manager", "version", version, "addr", cfg.Addr)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %q: %w", cfg.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(context.Background(), db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(parentOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger.Named("websocket"))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	m := metrics.New()
	events := storage.NewEventRepository(db)

	repo := locker.NewRepository()
	admin := locker.NewAdminService(repo, logger.Named("admin"), locker.WithDefaultListeners(
		storage.NewJournalListener(events, logger.Named("journal")),
		websocket.NewBroadcaster(hub),
		m,
	))
	lockers := locker.NewService(repo, pin.NewGenerator(), logger.Named("locker"))
	users := auth.NewDirectory(logger.Named("auth"), auth.WithObserver(m))

	if cfg.AdminAddress != "" {
		if _, err := users.CreateUser(cfg.AdminAddress, cfg.AdminPassword, true); err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
	} else {
		logger.Warn("no admin account configured, admin endpoints are unreachable")
	}

	retention := storage.NewRetentionScheduler(events, cfg.JournalRetention, cfg.PruneSchedule, clock.Real{}, logger.Named("retention"))
	if err := retention.Start(); err != nil {
		return err
	}
	defer retention.Stop()

	router := api.NewRouter(api.Services{
		DB:         db,
		Events:     events,
		Repository: repo,
		Lockers:    lockers,
		Admin:      admin,
		Users:      users,
		Hub:        hub,
		Metrics:    m,
		Logger:     logger.Named("http"),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	stop()
	<-hubDone
	logger.Info("server stopped")
	return nil
}

func parentOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost" + addr + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %s", resp.Status)
	}
	return nil
}
