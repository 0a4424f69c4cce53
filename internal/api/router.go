package api

import (
	"crowdx-backend/internal/api/v1/account"
	"crowdx-backend/internal/api/v1/auth"
	"crowdx-backend/internal/api/v1/campaign"
	"crowdx-backend/internal/api/v1/common"
	"crowdx-backend/internal/container"
	"crowdx-backend/internal/middleware"
	"crowdx-backend/internal/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP surface from an already composed container.
func NewRouter(c *container.Container) (*gin.Engine, error) {
	utils.RegisterJSONFieldNames()

	corsMW, err := middleware.PathCORS(c.Config)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Logger(c.Log), gin.Recovery(), corsMW)

	requireAuth := middleware.AuthMiddleware(c.Auth)
	optionalAuth := middleware.OptionalAuth(c.Auth)
	readAuth := optionalAuth
	if c.Config.CampaignReadsRequireAuth {
		readAuth = requireAuth
	}
	loginLimiter := middleware.RateLimit(c.Redis, c.Config.LoginRateLimitPerMinute, time.Minute,
		middleware.KeyByIPAndPath(), c.Log)

	apiGroup := router.Group("/api")
	{
		common.RegisterRoutes(apiGroup, common.NewHandler(c.DB, c.Redis), requireAuth)
		auth.RegisterRoutes(apiGroup, auth.NewHandler(c.Auth), requireAuth, loginLimiter)
		account.RegisterRoutes(apiGroup, account.NewHandler(c.Users), requireAuth, loginLimiter)
		campaign.RegisterRoutes(apiGroup,
			campaign.NewHandler(c.Campaigns, c.Hub, c.Config.CORSAllowedOrigins, c.Log),
			requireAuth, optionalAuth, readAuth)
	}

	return router, nil
}
