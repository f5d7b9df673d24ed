package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/routinelog/internal/auth"
	"github.com/routinelog/internal/config"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/handler"
	"github.com/routinelog/internal/logging"
	"github.com/routinelog/internal/router"
	"github.com/routinelog/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// .env 不存在时直接使用进程环境变量
	_ = godotenv.Load()

	cfg := config.Load()

	lg, err := logging.Init(logging.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseTarget())
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err), zap.String("driver", cfg.DatabaseDriver))
	}
	defer func() { _ = db.Close(gdb) }()

	denylist, closeDenylist := newDenylist(cfg, lg)
	defer closeDenylist()

	accounts := service.NewAccountService(gdb, cfg.BcryptCost)
	tokens := auth.NewTokenManager([]byte(cfg.TokenSecret), cfg.TokenTTL)
	sessions := service.NewSessionService(accounts, tokens, denylist)
	schedules := service.NewScheduleService(gdb)

	api := handler.NewAPI(gdb, accounts, sessions, schedules, lg, handler.Options{
		CookieSecure:   cfg.CookieSecure,
		TokenTTL:       cfg.TokenTTL,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	gin.SetMode(cfg.GinMode)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, router.Config{
		SessionSecret: cfg.SessionSecret,
		TemplateGlob:  cfg.TemplateGlob,
		StaticDir:     cfg.StaticDir,
		CookieSecure:  cfg.CookieSecure,
		Logger:        lg,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("database", cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newDenylist 配置了 REDIS_ADDR 时使用 Redis，多实例共享注销状态；否则使用进程内存
func newDenylist(cfg config.AppConfig, lg *zap.Logger) (auth.Denylist, func()) {
	if cfg.RedisAddr == "" {
		return auth.NewMemoryDenylist(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		lg.Warn("redis unreachable, falling back to in-memory denylist", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return auth.NewMemoryDenylist(), func() {}
	}

	lg.Info("using redis token denylist", zap.String("addr", cfg.RedisAddr))
	return auth.NewRedisDenylist(client), func() { _ = client.Close() }
}
