package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/http/handler"
)

func IngestRouter(rg *gin.RouterGroup, h *handler.IngestHandler) {
	rg.POST("/changes", h.Changes)
	rg.POST("/findings", h.Findings)
	rg.POST("/structure", h.Structure)
	rg.POST("/metrics", h.Metrics)

	rg.POST("/telemetry/inference", h.Inference)
	rg.POST("/telemetry/training", h.Training)
	rg.POST("/telemetry/interaction", h.Interaction)
}

func SchemaRouter(rg *gin.RouterGroup, h *handler.SchemaHandler) {
	rg.GET("", h.List)
	rg.GET("/:entity", h.Get)
}
