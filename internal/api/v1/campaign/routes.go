package campaign

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /campaigns. readAuth guards the read routes and is
// either optional or required depending on configuration.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, requireAuth, optionalAuth, readAuth gin.HandlerFunc) {
	campaigns := router.Group("/campaigns")
	{
		campaigns.GET("/", readAuth, h.ListCampaigns)
		campaigns.POST("/", requireAuth, h.CreateCampaign)
		campaigns.GET("/:id", readAuth, h.GetCampaign)
		campaigns.PATCH("/:id", requireAuth, h.UpdateCampaign)
		campaigns.DELETE("/:id", requireAuth, h.DeleteCampaign)

		campaigns.POST("/:id/entries", optionalAuth, h.Contribute)
		campaigns.GET("/:id/entries", readAuth, h.ListEntries)
		campaigns.GET("/:id/entries/export", requireAuth, h.ExportEntries)
		campaigns.GET("/:id/reconcile", readAuth, h.Reconcile)
		campaigns.GET("/:id/ws", h.Stream)
	}
}
