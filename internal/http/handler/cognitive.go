package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/http/dto"
)

type CognitiveHandler struct {
	engine cognitive.Engine
}

func NewCognitiveHandler(engine cognitive.Engine) *CognitiveHandler {
	return &CognitiveHandler{engine: engine}
}

func (h *CognitiveHandler) Performance(c *gin.Context) {
	snap, err := h.engine.GetCognitivePerformanceMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err, "collect cognitive metrics")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *CognitiveHandler) Engine(c *gin.Context) {
	metrics, err := h.engine.GetReasoningEngineMetrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get reasoning engine metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *CognitiveHandler) Engines(c *gin.Context) {
	metrics, err := h.engine.GetAllReasoningEngineMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err, "list reasoning engine metrics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"engines": metrics})
}

func (h *CognitiveHandler) Algorithm(c *gin.Context) {
	metrics, err := h.engine.GetLearningAlgorithmMetrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get learning algorithm metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *CognitiveHandler) Algorithms(c *gin.Context) {
	metrics, err := h.engine.GetAllLearningAlgorithmMetrics(c.Request.Context())
	if err != nil {
		respondError(c, err, "list learning algorithm metrics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"algorithms": metrics})
}

func (h *CognitiveHandler) User(c *gin.Context) {
	userID := c.Param("id")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: &userID})

	metrics, err := h.engine.GetUserAdaptationMetrics(ctx, userID)
	if err != nil {
		respondError(c, err, "get user adaptation metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *CognitiveHandler) Recommendations(c *gin.Context) {
	recs, err := h.engine.GetOptimizationRecommendations(c.Request.Context())
	if err != nil {
		respondError(c, err, "compute optimization recommendations")
		return
	}
	c.JSON(http.StatusOK, dto.RecommendationsResponse{Recommendations: recs})
}

func (h *CognitiveHandler) Health(c *gin.Context) {
	health, err := h.engine.GetCognitiveSystemHealth(c.Request.Context())
	if err != nil {
		respondError(c, err, "assess cognitive health")
		return
	}
	c.JSON(http.StatusOK, health)
}

func (h *CognitiveHandler) AccuracyTrend(c *gin.Context) {
	r, err := timeRangeQuery(c)
	if err != nil {
		respondError(c, err, "track reasoning accuracy")
		return
	}
	points, err := h.engine.TrackReasoningAccuracy(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "track reasoning accuracy")
		return
	}
	c.JSON(http.StatusOK, dto.TrendPointsResponse{Points: points})
}

func (h *CognitiveHandler) Convergence(c *gin.Context) {
	r, err := timeRangeQuery(c)
	if err != nil {
		respondError(c, err, "track learning convergence")
		return
	}
	points, err := h.engine.TrackLearningConvergence(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		respondError(c, err, "track learning convergence")
		return
	}
	c.JSON(http.StatusOK, dto.TrendPointsResponse{Points: points})
}
