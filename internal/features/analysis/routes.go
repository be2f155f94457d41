package analysis

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, maxBytes int64) {
	handler := NewHandler(service, maxBytes)

	analyze := router.Group("/analyze")
	{
		analyze.POST("", handler.Analyze)
		analyze.GET("/categories", handler.Categories)
	}
}
