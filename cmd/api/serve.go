package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/config"
	"construction-platform/internal/db"
	"construction-platform/internal/security"
	"construction-platform/internal/users"
	"construction-platform/pkg/logger"
	"construction-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, closeLogs, err := bootstrap()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	defer closeLogs()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tracking, err := logger.InitSentry(cfg.Log.SentryDSN, cfg.App.Env)
	if err != nil {
		return err
	}
	if tracking {
		defer logger.FlushSentry(2 * time.Second)
	} else {
		log.Warn("SENTRY_DSN not configured, error tracking disabled")
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init failed: %w", err)
	}

	pg, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return fmt.Errorf("postgres init failed: %w", err)
	}
	defer pg.Close()

	if serveMigrate {
		if err := db.Migrate(rootCtx, pg); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	counters, closeCounters, err := openCounterStore(rootCtx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCounters()

	r, err := newRouter(routerDeps{
		Config:   cfg,
		Log:      log,
		Users:    users.NewPostgresRepo(pg),
		Audit:    audit.NewService(audit.NewPostgresRepo(pg)),
		Tokens:   tokens,
		Hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Counters: counters,
		Tracking: tracking,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	default:
		return nil
	}
}

// openCounterStore picks Redis when REDIS_URL or REDIS_HOST is set so every
// instance shares rate-limit counters; otherwise counters stay in process memory.
func openCounterStore(ctx context.Context, cfg config.Config, log *slog.Logger) (security.CounterStore, func(), error) {
	if !cfg.RedisEnabled() {
		log.Info("rate limit counters in memory")
		return security.NewMemoryStore(), func() {}, nil
	}

	rc := utils.RedisConfig{URL: cfg.Redis.URL}
	if cfg.Redis.Host != "" {
		rc.Addr = cfg.RedisAddr()
	}
	rdb, err := utils.OpenRedis(ctx, rc)
	if err != nil {
		return nil, nil, fmt.Errorf("redis init failed: %w", err)
	}
	store, err := security.NewRedisStore(rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.Info("rate limit counters in redis", "addr", rdb.Options().Addr)
	return store, func() { _ = rdb.Close() }, nil
}
