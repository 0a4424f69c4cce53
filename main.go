package main

import (
	"context"
	"crowdx-backend/config"
	"crowdx-backend/internal/api"
	"crowdx-backend/internal/container"
	"crowdx-backend/internal/database"
	"crowdx-backend/pkg/logger"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title crowdx-backend API
// @version 1.0
// @description Campaigns, contributions and accounts.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zlog, err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(context.Background(), cfg)
	if err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}
	if rdb == nil {
		zlog.Warn("redis disabled: no user cache, token revocation or rate limiting")
	} else {
		defer rdb.Close()
	}

	c := container.New(cfg, db, rdb, zlog)
	initAdminUser(c)

	router, err := api.NewRouter(c)
	if err != nil {
		zlog.Fatal("failed to create router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	zlog.Info("server exited properly")
}

// initAdminUser creates the configured superuser on first start.
func initAdminUser(c *container.Container) {
	if c.Config.AdminUsername == "" || c.Config.AdminPassword == "" {
		return
	}

	created, err := c.Users.EnsureSuperuser(context.Background(), c.Config.AdminUsername, c.Config.AdminPassword)
	if err != nil {
		c.Log.Fatal("failed to create admin user", zap.Error(err))
	}
	if created {
		c.Log.Info("admin user created", zap.String("username", c.Config.AdminUsername))
	} else {
		c.Log.Info("admin user already exists", zap.String("username", c.Config.AdminUsername))
	}
}
