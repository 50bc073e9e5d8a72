package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-gateway/internal/audit"
	"session-gateway/internal/backend"
	"session-gateway/internal/config"
	"session-gateway/internal/ratelimit"
	"session-gateway/pkg/logger"
	"session-gateway/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if !cfg.MediaConfigured() {
		log.Warn("media signing credentials missing; /api/token/livekit will answer 400")
	}

	api, err := backend.New(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		ProductID: cfg.Backend.ProductID,
		Timeout:   cfg.Backend.Timeout,
	})
	if err != nil {
		log.Error("backend client init failed", "err", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.Redis.Addr})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var db *sql.DB
	if cfg.DB.URL != "" {
		db, err = utils.OpenPostgres(rootCtx, "pgx", cfg.DB.URL, utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	auditRepo, err := newAuditRepo(rootCtx, log, db, rdb)
	if err != nil {
		log.Error("audit init failed", "err", err)
		os.Exit(1)
	}

	var limiter *ratelimit.Limiter
	if rdb != nil && cfg.RateLimit.PerMinute > 0 {
		limiter, err = ratelimit.NewLimiter(rdb, cfg.RateLimit.PerMinute, time.Minute)
		if err != nil {
			log.Error("rate limiter init failed", "err", err)
			os.Exit(1)
		}
	}

	r, err := newEngine(log, deps{
		cfg:     cfg,
		backend: api,
		audit:   audit.NewService(auditRepo),
		limiter: limiter,
	})
	if err != nil {
		log.Error("http engine init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway listening", "addr", srv.Addr, "protected_routes", cfg.Routes.Protected, "trusted_proxies", cfg.App.TrustedProxies)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
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
}

// newAuditRepo picks the most durable configured sink: Postgres, then Redis, then the log.
func newAuditRepo(ctx context.Context, log *slog.Logger, db *sql.DB, rdb *redis.Client) (audit.Repository, error) {
	switch {
	case db != nil:
		repo := audit.NewPostgresRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Info("audit sink", "kind", "postgres")
		return repo, nil
	case rdb != nil:
		log.Info("audit sink", "kind", "redis", "stream", audit.DefaultStream)
		return audit.NewRedisRepo(rdb, audit.DefaultStream), nil
	default:
		log.Info("audit sink", "kind", "log")
		return audit.NewLogRepo(log), nil
	}
}
