package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/middleware"
)

type RouterConfig struct {
	// APIKey guards ingestion and purge. Empty disables those routes.
	APIKey string
}

type Handlers struct {
	Code       *handler.CodeHandler
	Cognitive  *handler.CognitiveHandler
	Insights   *handler.InsightHandler
	Ingest     *handler.IngestHandler
	Schema     *handler.SchemaHandler
	TaskStatus *handler.TaskStatusHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		CodeRouter(v1.Group("/code"), h.Code)
		CognitiveRouter(v1.Group("/cognitive"), h.Cognitive)
		InsightRouter(v1.Group("/insights"), h.Insights, cfg.APIKey)
		SchemaRouter(v1.Group("/schema"), h.Schema)

		ingest := v1.Group("/ingest")
		ingest.Use(middleware.RequireAPIKey(cfg.APIKey))
		IngestRouter(ingest, h.Ingest)

		if h.TaskStatus != nil {
			v1.GET("/tasks/status/stream", h.TaskStatus.Stream)
		}
	}
}
