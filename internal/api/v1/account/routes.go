package account

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /accounts. requireAuth guards the profile routes and
// limiter throttles registration.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, requireAuth, limiter gin.HandlerFunc) {
	accounts := router.Group("/accounts")
	accounts.POST("/register", limiter, h.Register)

	profile := accounts.Group("/")
	profile.Use(requireAuth)
	{
		profile.GET("/profile", h.Profile)
		profile.PATCH("/profile", h.UpdateProfile)
		profile.DELETE("/profile", h.DeleteAccount)
		profile.POST("/password", h.ChangePassword)
	}
}
