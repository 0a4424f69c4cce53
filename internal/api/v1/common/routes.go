package common

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, h *Handler, requireAuth gin.HandlerFunc) {
	router.GET("/hello", h.Hello)
	router.GET("/health", h.Health)
	router.GET("/me", requireAuth, h.Me)
}
