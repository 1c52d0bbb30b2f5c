package router

import (
	"github.com/gin-gonic/gin"

	"baja-recommender/api/handler"
)

func RegisterRoutes(r *gin.Engine, h *handler.RecommendationHandler) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		rec := api.Group("/recommendation")
		{
			rec.POST("/analyze", h.Analyze)
			rec.POST("/analyze-lots", h.AnalyzeLots)
			rec.POST("/keywords", h.Keywords)
		}
	}
}
