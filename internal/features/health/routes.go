package health

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, adminMiddleware gin.HandlerFunc) {
	router.GET("/health", handler.Health)
	router.POST("/health/reconnect", adminMiddleware, handler.Reconnect)
	router.POST("/admin/sync", adminMiddleware, handler.Sync)
}
