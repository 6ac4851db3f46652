package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/analytics"
)

// CodeHandler serves the code analytics engine. Workspace ids contain slashes, so they travel
// in the workspace query parameter rather than the path.
type CodeHandler struct {
	engine analytics.Engine
}

func NewCodeHandler(engine analytics.Engine) *CodeHandler {
	return &CodeHandler{engine: engine}
}

func (h *CodeHandler) workspace(c *gin.Context) string {
	ws := c.Query("workspace")
	if ws != "" {
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{WorkspaceID: &ws})
		c.Request = c.Request.WithContext(ctx)
	}
	return ws
}

func (h *CodeHandler) Evolution(c *gin.Context) {
	history, err := h.engine.TrackCodeEvolution(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "track code evolution")
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": history})
}

func (h *CodeHandler) Debt(c *gin.Context) {
	analysis, err := h.engine.AnalyzeTechnicalDebt(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "analyze technical debt")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *CodeHandler) Architecture(c *gin.Context) {
	metrics, err := h.engine.AssessArchitectureQuality(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "assess architecture quality")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *CodeHandler) Productivity(c *gin.Context) {
	period, err := timeRangeQuery(c)
	if err != nil {
		respondError(c, err, "analyze developer productivity")
		return
	}
	userID := c.Query("user")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: &userID})

	productivity, err := h.engine.AnalyzeDeveloperProductivity(ctx, userID, period)
	if err != nil {
		respondError(c, err, "analyze developer productivity")
		return
	}
	c.JSON(http.StatusOK, productivity)
}

func (h *CodeHandler) Bugs(c *gin.Context) {
	predictions, err := h.engine.PredictBugs(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "predict bugs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (h *CodeHandler) Refactoring(c *gin.Context) {
	analysis, err := h.engine.IdentifyRefactoringOpportunities(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "identify refactoring opportunities")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *CodeHandler) Bottlenecks(c *gin.Context) {
	predictions, err := h.engine.PredictPerformanceBottlenecks(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "predict performance bottlenecks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (h *CodeHandler) Security(c *gin.Context) {
	assessment, err := h.engine.AssessSecurityRisks(c.Request.Context(), h.workspace(c))
	if err != nil {
		respondError(c, err, "assess security risks")
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (h *CodeHandler) Quality(c *gin.Context) {
	score, err := h.engine.GetCodeQualityScore(c.Request.Context(), c.Query("path"))
	if err != nil {
		respondError(c, err, "score code quality")
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *CodeHandler) Trend(c *gin.Context) {
	r, err := timeRangeQuery(c)
	if err != nil {
		respondError(c, err, "compute metric trend")
		return
	}
	trend, err := h.engine.GetMetricTrend(c.Request.Context(), h.workspace(c), c.Query("metric"), r)
	if err != nil {
		respondError(c, err, "compute metric trend")
		return
	}
	c.JSON(http.StatusOK, trend)
}
