package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all API v1 routes. Alert routes carry the API key
// middleware; facility, weather and health routes are public.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	alerts := api.Group("/alerts")
	alerts.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		alerts.POST("", h.createAlert)
		alerts.GET("/pending", h.listPendingAlerts)
		alerts.DELETE("/:id", h.cancelAlert)
		alerts.POST("/sync", h.triggerSync)
		alerts.GET("/stats", h.getStats)
	}

	api.GET("/facilities/nearby", h.findNearbyFacilities)
	api.GET("/weather", h.getWeather)

	api.GET("/system/health", h.healthCheck)
}
