package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/middleware"
)

func InsightRouter(rg *gin.RouterGroup, h *handler.InsightHandler, apiKey string) {
	rg.POST("/generate", h.Generate)
	rg.GET("/prioritized", h.Prioritized)
	rg.GET("/personalized", h.Personalized)
	rg.GET("/history", h.Historical)
	rg.GET("/acceptance-rate", h.AcceptanceRate)
	rg.POST("/:id/acknowledge", h.Acknowledge)
	rg.POST("/:id/feedback", h.Feedback)

	rg.DELETE("", middleware.RequireAPIKey(apiKey), h.Purge)
}
