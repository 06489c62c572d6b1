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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-contacts-api/internal/core/auth"
	"go-contacts-api/internal/core/config"
	"go-contacts-api/internal/core/database"
	"go-contacts-api/internal/core/limiter"
	"go-contacts-api/internal/core/logger"
	"go-contacts-api/internal/core/mail"
	"go-contacts-api/internal/core/server"
	"go-contacts-api/internal/core/storage"
	"go-contacts-api/internal/transport/http/router"
	"go-contacts-api/pkg/utils"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config file")
	migrate := pflag.Bool("migrate", false, "run database migrations on startup")
	pflag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(*configPath)
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate || *migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	tokens, err := auth.NewJWTer(auth.Options{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
		EmailTTL:   cfg.JWT.EmailTTL(),
		Leeway:     time.Duration(cfg.JWT.LeewaySec) * time.Second,
	})
	if err != nil {
		log.Fatal("jwt setup", zap.Error(err))
	}

	// 邮件：异步队列，关闭时排空
	mailer := mail.NewDispatcher(mail.NewSender(cfg.Mail, log), log, cfg.Mail.Workers, cfg.Mail.QueueSize)

	// 头像存储
	initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
	uploader, err := storage.New(initCtx, cfg.Storage)
	initCancel()
	if err != nil {
		log.Fatal("storage setup", zap.Error(err))
	}

	// /users/me 限流
	var meLimiter limiter.Limiter
	switch cfg.RateLimit.Driver {
	case "redis":
		rdb := limiter.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		meLimiter = limiter.NewRedis(rdb, "rl:me", cfg.RateLimit.MeRequests, cfg.RateLimit.MeWindow())
	default:
		meLimiter = limiter.NewLocal(cfg.RateLimit.MeRequests, cfg.RateLimit.MeWindow())
	}

	// 路由（用户端）
	r := router.NewAPIEngine(router.Deps{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Tokens:    tokens,
		Hasher:    utils.NewHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost),
		Mailer:    mailer,
		Uploader:  uploader,
		MeLimiter: meLimiter,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("contacts api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("contacts api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭：先停 HTTP，再排空邮件队列
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := mailer.Close(ctx); err != nil {
		log.Warn("mail queue not drained", zap.Error(err))
	}
	log.Info("contacts api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
