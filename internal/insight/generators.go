package insight

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	debtInsightHours         = 40.0
	debtCriticalHours        = 80.0
	highValueRefactorBenefit = 70.0
	maxListedIssues          = 5

	// incompleteConfidence caps the confidence of insights built from partial analyses.
	incompleteConfidence = 0.6

	// cognitiveMetricCount is the number of metrics a cognitive snapshot can carry.
	cognitiveMetricCount = 6
)

func (e *engine) performanceInsights(ctx context.Context) []model.GeneratedInsight {
	health, err := e.cognitive.GetCognitiveSystemHealth(ctx)
	if err != nil {
		slog.WarnContext(ctx, "skipping performance insights", "error", err)
		return nil
	}
	if health.Status == model.HealthStatusHealthy {
		return nil
	}

	priority := model.PriorityHigh
	if health.Status == model.HealthStatusCritical {
		priority = model.PriorityCritical
	}
	available := cognitiveMetricCount - len(health.Snapshot.Missing)

	return []model.GeneratedInsight{{
		Title:           fmt.Sprintf("Cognitive system health is %s", health.Status),
		Description:     fmt.Sprintf("Health score %.0f/100 with %d issue(s) detected.", health.Score, len(health.Issues)),
		Priority:        priority,
		Impact:          100 - health.Score,
		Confidence:      float64(available) / cognitiveMetricCount,
		Recommendations: health.Recommendations,
		SupportingData: map[string]any{
			"score":  health.Score,
			"status": health.Status,
			"issues": health.Issues,
		},
	}}
}

func (e *engine) qualityInsights(ctx context.Context) []model.GeneratedInsight {
	var out []model.GeneratedInsight
	for _, ws := range e.cfg.Workspaces {
		wctx := logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &ws})
		debt, err := e.code.AnalyzeTechnicalDebt(wctx, ws)
		if err != nil {
			slog.WarnContext(wctx, "skipping quality insights", "error", err)
			continue
		}
		out = append(out, QualityInsights(debt)...)
	}
	return out
}

// QualityInsights fires on total debt above 40h (critical above 80h) and, separately, on any
// critical debt issue.
func QualityInsights(debt model.TechnicalDebtAnalysis) []model.GeneratedInsight {
	var out []model.GeneratedInsight

	confidence := 0.9
	if !debt.Complete() {
		confidence = incompleteConfidence
	}

	if debt.TotalDebtHours > debtInsightHours {
		priority := model.PriorityHigh
		if debt.TotalDebtHours > debtCriticalHours {
			priority = model.PriorityCritical
		}
		out = append(out, model.GeneratedInsight{
			WorkspaceID:     debt.WorkspaceID,
			Title:           fmt.Sprintf("Technical debt in %s reached %.0f hours", debt.WorkspaceID, debt.TotalDebtHours),
			Description:     fmt.Sprintf("Estimated remediation effort is %.1f hours and the trend is %s.", debt.TotalDebtHours, debt.Trend),
			Priority:        priority,
			Impact:          debt.TotalDebtHours,
			Confidence:      confidence,
			Recommendations: debt.Recommendations,
			SupportingData: map[string]any{
				"total_debt_hours":   debt.TotalDebtHours,
				"debt_by_category":   debt.DebtByCategory,
				"trend":              debt.Trend,
				"missing_categories": debt.MissingCategories,
			},
		})
	}

	if n := len(debt.CriticalIssues); n > 0 {
		impact := 0.0
		recs := make([]string, 0, min(n, maxListedIssues))
		for i, issue := range debt.CriticalIssues {
			impact = max(impact, issue.Impact)
			if i < maxListedIssues {
				recs = append(recs, fmt.Sprintf("Fix %s at %s", issue.Description, issue.Location))
			}
		}
		out = append(out, model.GeneratedInsight{
			WorkspaceID:     debt.WorkspaceID,
			Title:           fmt.Sprintf("%d critical debt issue(s) in %s", n, debt.WorkspaceID),
			Description:     "Critical issues need immediate remediation.",
			Priority:        model.PriorityCritical,
			Impact:          impact,
			Confidence:      0.95,
			Recommendations: recs,
			SupportingData:  map[string]any{"critical_issues": n},
		})
	}
	return out
}

func (e *engine) productivityInsights(ctx context.Context) []model.GeneratedInsight {
	var out []model.GeneratedInsight
	for _, ws := range e.cfg.Workspaces {
		wctx := logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &ws})
		analysis, err := e.code.IdentifyRefactoringOpportunities(wctx, ws)
		if err != nil {
			slog.WarnContext(wctx, "skipping productivity insights", "error", err)
			continue
		}
		if in, ok := ProductivityInsight(analysis); ok {
			out = append(out, in)
		}
	}
	return out
}

// ProductivityInsight fires when any refactoring opportunity has benefit of at least 70. Impact
// is the average benefit of those opportunities. Confidence is capped when a finding category
// could not be read.
func ProductivityInsight(analysis model.RefactoringAnalysis) (model.GeneratedInsight, bool) {
	var benefit, confidence float64
	var recs []string
	count := 0
	for _, o := range analysis.Opportunities {
		if o.Benefit < highValueRefactorBenefit {
			continue
		}
		count++
		benefit += o.Benefit
		confidence += o.Confidence
		if len(recs) < maxListedIssues {
			recs = append(recs, fmt.Sprintf("%s %s", o.Type, o.Location))
		}
	}
	if count == 0 {
		return model.GeneratedInsight{}, false
	}

	priority := model.PriorityMedium
	if count >= maxListedIssues {
		priority = model.PriorityHigh
	}
	confidence /= float64(count)
	if !analysis.Complete() {
		confidence = min(confidence, incompleteConfidence)
	}
	return model.GeneratedInsight{
		WorkspaceID:     analysis.WorkspaceID,
		Title:           fmt.Sprintf("%d high-value refactoring opportunities in %s", count, analysis.WorkspaceID),
		Description:     "Refactoring these locations is expected to pay off quickly.",
		Priority:        priority,
		Impact:          benefit / float64(count),
		Confidence:      confidence,
		Recommendations: recs,
		SupportingData: map[string]any{
			"opportunities":      count,
			"missing_categories": analysis.MissingCategories,
		},
	}, true
}

func (e *engine) securityInsights(ctx context.Context) []model.GeneratedInsight {
	var out []model.GeneratedInsight
	for _, ws := range e.cfg.Workspaces {
		wctx := logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &ws})
		risk, err := e.code.AssessSecurityRisks(wctx, ws)
		if err != nil {
			slog.WarnContext(wctx, "skipping security insights", "error", err)
			continue
		}
		if risk.RiskLevel != model.SeverityHigh && risk.RiskLevel != model.SeverityCritical {
			continue
		}
		out = append(out, model.GeneratedInsight{
			WorkspaceID:     ws,
			Title:           fmt.Sprintf("Security risk in %s is %s", ws, risk.RiskLevel),
			Description:     fmt.Sprintf("%d security finding(s), highest impact %.0f.", len(risk.Findings), risk.RiskScore),
			Priority:        risk.RiskLevel,
			Impact:          risk.RiskScore,
			Confidence:      risk.Confidence,
			Recommendations: risk.Recommendations,
			SupportingData:  map[string]any{"findings": len(risk.Findings)},
		})
	}
	return out
}

// collaborationInsights is reserved; no collaboration signals are collected yet.
func (e *engine) collaborationInsights(context.Context) []model.GeneratedInsight {
	return nil
}
