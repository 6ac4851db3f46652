package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/http/dto"
	"basegraph.app/insight/internal/insight"
	"basegraph.app/insight/internal/model"
)

type InsightHandler struct {
	engine insight.Engine
}

func NewInsightHandler(engine insight.Engine) *InsightHandler {
	return &InsightHandler{engine: engine}
}

// Generate runs every generator, or only the one named by the category query parameter.
func (h *InsightHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		generated []model.GeneratedInsight
		err       error
	)
	if raw := c.Query("category"); raw != "" {
		category, parseErr := model.ParseInsightCategory(raw)
		if parseErr != nil {
			respondError(c, parseErr, "generate insights")
			return
		}
		generated, err = h.engine.GenerateInsightsByCategory(ctx, category)
	} else {
		generated, err = h.engine.GenerateInsights(ctx)
	}
	if err != nil {
		respondError(c, err, "generate insights")
		return
	}

	c.JSON(http.StatusCreated, dto.InsightListResponse{Insights: generated})
}

func (h *InsightHandler) Prioritized(c *gin.Context) {
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		respondError(c, err, "rank insights")
		return
	}
	insights, err := h.engine.GetPrioritizedInsights(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "rank insights")
		return
	}
	c.JSON(http.StatusOK, dto.InsightListResponse{Insights: insights})
}

func (h *InsightHandler) Personalized(c *gin.Context) {
	userID := c.Query("user")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: &userID})

	insights, err := h.engine.GetPersonalizedInsights(ctx, userID)
	if err != nil {
		respondError(c, err, "get personalized insights")
		return
	}
	c.JSON(http.StatusOK, dto.InsightListResponse{Insights: insights})
}

func (h *InsightHandler) Historical(c *gin.Context) {
	r, err := timeRangeQuery(c)
	if err != nil {
		respondError(c, err, "get historical insights")
		return
	}
	insights, err := h.engine.GetHistoricalInsights(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "get historical insights")
		return
	}
	c.JSON(http.StatusOK, dto.InsightListResponse{Insights: insights})
}

func (h *InsightHandler) Acknowledge(c *gin.Context) {
	id := c.Param("id")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{InsightID: &id})

	if err := h.engine.AcknowledgeInsight(ctx, id); err != nil {
		respondError(c, err, "acknowledge insight")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InsightHandler) Feedback(c *gin.Context) {
	id := c.Param("id")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{InsightID: &id})

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid feedback request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: helpful is required"})
		return
	}

	record, err := h.engine.ProvideInsightFeedback(ctx, id, *req.Helpful, req.Comment)
	if err != nil {
		respondError(c, err, "record feedback")
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *InsightHandler) AcceptanceRate(c *gin.Context) {
	rate, err := h.engine.GetInsightAcceptanceRate(c.Request.Context())
	if err != nil {
		respondError(c, err, "compute acceptance rate")
		return
	}
	c.JSON(http.StatusOK, dto.AcceptanceRateResponse{Rate: rate})
}

// Purge removes insights generated before the RFC 3339 before query parameter.
func (h *InsightHandler) Purge(c *gin.Context) {
	cutoff, err := time.Parse(time.RFC3339, c.Query("before"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC 3339 timestamp"})
		return
	}
	purged, err := h.engine.PurgeInsights(c.Request.Context(), cutoff)
	if err != nil {
		respondError(c, err, "purge insights")
		return
	}
	c.JSON(http.StatusOK, dto.PurgeResponse{Purged: purged})
}
