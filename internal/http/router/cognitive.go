package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/http/handler"
)

func CognitiveRouter(rg *gin.RouterGroup, h *handler.CognitiveHandler) {
	rg.GET("/performance", h.Performance)
	rg.GET("/health", h.Health)
	rg.GET("/recommendations", h.Recommendations)
	rg.GET("/accuracy", h.AccuracyTrend)

	rg.GET("/engines", h.Engines)
	rg.GET("/engines/:id", h.Engine)
	rg.GET("/algorithms", h.Algorithms)
	rg.GET("/algorithms/:id", h.Algorithm)
	rg.GET("/algorithms/:id/convergence", h.Convergence)
	rg.GET("/users/:id", h.User)
}
