package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/kopilka/internal/bootstrap"
	"anoa.com/kopilka/internal/config"
	"anoa.com/kopilka/internal/server"
	"anoa.com/kopilka/pkg/database"
	"anoa.com/kopilka/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatal("failed to seed roles", "error", err)
	}
	if err := bootstrap.SeedCategories(db); err != nil {
		log.Fatal("failed to seed categories", "error", err)
	}
	if err := bootstrap.SeedAchievements(db); err != nil {
		log.Fatal("failed to seed achievements", "error", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(db, log, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("failed to seed admin user", "error", err)
		}
	}

	opts := server.Options{
		Redis: connectRedis(cfg, log),
		Meili: connectMeili(cfg, log),
	}

	srv, err := server.NewServer(cfg, db, opts, log)
	if err != nil {
		log.Fatal("failed to build server", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server exited with error", "error", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if opts.Redis != nil {
		_ = opts.Redis.Close()
	}
	log.Info("server stopped")
}

// connectRedis returns nil when REDIS_ADDR is unset or unreachable. Redis backed features degrade.
func connectRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, running without redis")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, running without redis", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func connectMeili(cfg *config.Config, log *logger.Logger) meilisearch.ServiceManager {
	host := cfg.MeiliSearchHost
	if host == "" {
		log.Warn("MEILISEARCH_HOST not set, application search disabled")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	return meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
}
