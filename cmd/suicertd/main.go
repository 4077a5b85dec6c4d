package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/suicert/suicert/internal/api"
	"github.com/suicert/suicert/internal/chain"
	"github.com/suicert/suicert/internal/config"
	"github.com/suicert/suicert/internal/oauth"
	"github.com/suicert/suicert/internal/sponsor"
	"github.com/suicert/suicert/internal/zklogin"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (credential slots) ──────────────────────────────────────────────
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping failed", zap.Error(err))
	}

	// ── Chain client ──────────────────────────────────────────────────────────
	onchain, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatal("chain client init failed", zap.Error(err))
	}
	defer onchain.Close()

	// Fail fast on a malformed sponsor secret rather than on the first request.
	if _, err := sponsor.NewDecoder().Decode(cfg.Sponsor.Secret, cfg.Sponsor.Address); err != nil {
		log.Fatal("sponsor key check failed", zap.Error(err))
	}

	// ── Core components ───────────────────────────────────────────────────────
	creds := zklogin.NewManager(zklogin.NewRedisStore(rdb), onchain, cfg.Chain.MaxEpochHorizon, log)
	redirects := oauth.NewRedirectBuilder(cfg.OAuth)
	exec := sponsor.NewExecutor(onchain, cfg.Sponsor, log)

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery())
	api.NewHandler(creds, redirects, exec, cfg.Sponsor, log).Register(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}
