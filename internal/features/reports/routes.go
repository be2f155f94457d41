package reports

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the report routes. submitLimit throttles creation
// and admin guards mutations; either may be a pass-through.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, submitLimit, admin gin.HandlerFunc) {
	reports := router.Group("/reports")
	{
		reports.POST("", submitLimit, handler.Create)
		reports.GET("", handler.List)
		reports.GET("/stats/summary", handler.Stats)
		reports.GET("/:id", handler.Get)
		reports.PATCH("/:id", admin, handler.UpdateStatus)
		reports.PUT("/:id", admin, handler.UpdateStatus)
		reports.DELETE("/:id", admin, handler.Delete)
	}
}
