package common

import (
	"context"
	"crowdx-backend/internal/middleware"
	"crowdx-backend/internal/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type Handler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHandler(db *gorm.DB, rdb *redis.Client) *Handler {
	return &Handler{db: db, redis: rdb}
}

// Hello godoc
// @Summary Say hello
// @Tags common
// @Produce  json
// @Success 200 {object} utils.Response{data=common.HelloResponse}
// @Router /hello [get]
func (h *Handler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, utils.NewSuccessResponse("OK", HelloResponse{Message: "Hello, world!"}))
}

// Me godoc
// @Summary Current identity
// @Tags common
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=common.MeResponse}
// @Failure 401 {object} utils.Response
// @Router /me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("OK", MeResponse{
		ID:              user.ID,
		Username:        user.Username,
		IsAuthenticated: true,
		Email:           user.Email,
	}))
}

// Health godoc
// @Summary Dependency health
// @Tags common
// @Produce  json
// @Success 200 {object} utils.Response{data=common.HealthResponse}
// @Failure 503 {object} utils.Response{data=common.HealthResponse}
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	res := HealthResponse{Database: statusUp, Redis: statusDisabled}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		res.Database = statusDown
		healthy = false
	}
	if h.redis != nil {
		res.Redis = statusUp
		if err := h.redis.Ping(ctx).Err(); err != nil {
			res.Redis = statusDown
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, utils.NewResponse(http.StatusServiceUnavailable, "Service unavailable", res))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("OK", res))
}
