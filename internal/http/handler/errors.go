package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/insight/internal/model"
)

// respondError maps engine sentinels onto status codes. action completes "failed to ..." for 500s.
func respondError(c *gin.Context, err error, action string) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, model.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrCollaboratorUnavailable):
		slog.WarnContext(ctx, "collaborator unavailable", "error", err, "action", action)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(ctx, "request failed", "error", err, "action", action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

// timeRangeQuery reads RFC 3339 start and end query parameters.
func timeRangeQuery(c *gin.Context) (model.TimeRange, error) {
	var r model.TimeRange
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"start", &r.Start}, {"end", &r.End}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.TimeRange{}, fmt.Errorf("%w: %s must be RFC 3339: %v", model.ErrInvalidInput, p.key, err)
		}
		*p.dst = t
	}
	if err := r.Validate(); err != nil {
		return model.TimeRange{}, err
	}
	return r, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidInput, key)
	}
	return n, nil
}
