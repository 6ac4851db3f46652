package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

// weeklyUnitsTarget is the weighted activity that scores 100 over one week.
const weeklyUnitsTarget = 40.0

func (e *engine) AnalyzeDeveloperProductivity(ctx context.Context, userID string, period model.TimeRange) (model.DeveloperProductivity, error) {
	if err := model.ValidateID("user", userID); err != nil {
		return model.DeveloperProductivity{}, err
	}
	if err := period.Validate(); err != nil {
		return model.DeveloperProductivity{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    &userID,
		Component: "insight.analytics.productivity",
	})

	counts, err := e.src.Activity.Activity(ctx, userID, period)
	if err != nil {
		return model.DeveloperProductivity{}, fmt.Errorf("reading activity for %s: %w", userID, err)
	}

	p := model.DeveloperProductivity{
		UserID:            userID,
		Period:            period,
		Commits:           counts.Commits,
		LinesAdded:        counts.LinesAdded,
		LinesRemoved:      counts.LinesRemoved,
		MergeRequests:     counts.MergeRequests,
		ReviewsCompleted:  counts.ReviewsCompleted,
		IssuesResolved:    counts.IssuesResolved,
		ProductivityScore: ProductivityScore(counts, period.Duration()),
	}

	slog.InfoContext(ctx, "developer productivity analyzed",
		"commits", p.Commits,
		"merge_requests", p.MergeRequests,
		"score", p.ProductivityScore)
	return p, nil
}

// ProductivityScore normalizes weighted activity (commits + 3·MRs + 2·reviews + 2·issues) to
// 40 units per week. Periods shorter than a day count as one day.
func ProductivityScore(c model.ActivityCounts, period time.Duration) float64 {
	units := float64(c.Commits) + 3*float64(c.MergeRequests) + 2*float64(c.ReviewsCompleted) + 2*float64(c.IssuesResolved)
	weeks := max(period.Hours()/168, 1.0/7)
	return model.Clamp(100*units/(weeklyUnitsTarget*weeks), 0, 100)
}
