// Package container wires the application's services together. Handlers
// receive the services they need from here instead of reaching for globals.
package container

import (
	"crowdx-backend/config"
	"crowdx-backend/internal/realtime"
	"crowdx-backend/internal/services"
	"crowdx-backend/internal/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const progressBuffer = 16

type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client // nil when redis is not configured
	Log    *zap.Logger

	JWT       *utils.JWTManager
	Hub       *realtime.Hub
	Users     *services.UserService
	Auth      *services.AuthService
	Campaigns *services.CampaignService
}

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Container {
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hub := realtime.NewHub(progressBuffer)
	users := services.NewUserService(db, rdb, log.Named("users"))

	return &Container{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Log:       log,
		JWT:       jwtManager,
		Hub:       hub,
		Users:     users,
		Auth:      services.NewAuthService(users, jwtManager, services.NewDenylist(rdb), log.Named("auth")),
		Campaigns: services.NewCampaignService(db, log.Named("campaigns"), cfg.JWTSecret, hub),
	}
}
