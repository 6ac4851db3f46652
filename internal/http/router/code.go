package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/http/handler"
)

// CodeRouter exposes the code analytics engine. Every route takes ?workspace=group/project
// except quality (?path=) and productivity (?user=&start=&end=).
func CodeRouter(rg *gin.RouterGroup, h *handler.CodeHandler) {
	rg.GET("/evolution", h.Evolution)
	rg.GET("/debt", h.Debt)
	rg.GET("/architecture", h.Architecture)
	rg.GET("/productivity", h.Productivity)
	rg.GET("/bugs", h.Bugs)
	rg.GET("/refactoring", h.Refactoring)
	rg.GET("/bottlenecks", h.Bottlenecks)
	rg.GET("/security", h.Security)
	rg.GET("/quality", h.Quality)
	rg.GET("/trend", h.Trend)
}
