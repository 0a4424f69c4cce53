package auth

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler, requireAuth, limiter gin.HandlerFunc) {
	token := router.Group("/token")
	token.POST("/pair", limiter, h.ObtainPair)
	token.POST("/refresh", h.Refresh)
	token.POST("/verify", h.Verify)

	router.POST("/accounts/logout", requireAuth, h.Logout)
}
