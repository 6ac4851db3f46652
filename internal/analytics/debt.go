package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

// trendBand is the relative change against the baseline that still counts as stable.
const trendBand = 0.05

var (
	defaultEffortHours = map[model.Severity]float64{
		model.SeverityCritical: 8,
		model.SeverityHigh:     4,
		model.SeverityMedium:   2,
		model.SeverityLow:      1,
	}
	defaultImpact = map[model.Severity]float64{
		model.SeverityCritical: 90,
		model.SeverityHigh:     70,
		model.SeverityMedium:   40,
		model.SeverityLow:      15,
	}
)

type categoryResult struct {
	hours  float64
	issues []model.DebtIssue
}

func (e *engine) AnalyzeTechnicalDebt(ctx context.Context, workspaceID string) (model.TechnicalDebtAnalysis, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return model.TechnicalDebtAnalysis{}, err
	}
	sc := logger.StartSpan(ctx, "analytics.analyze_debt", logger.AttrWorkspaceID.String(workspaceID))
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.debt",
	})

	var (
		mu      sync.Mutex
		results = make(map[model.Category]categoryResult, len(model.DebtCategories))
		failed  = make(map[model.Category]error)
	)

	// Analyzers never return an error to the group: one failing category must not cancel the rest.
	var g errgroup.Group
	for _, category := range model.DebtCategories {
		g.Go(func() error {
			res, err := e.analyzeCategory(ctx, workspaceID, category)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[category] = err
				return nil
			}
			results[category] = res
			return nil
		})
	}
	_ = g.Wait()

	analysis := model.TechnicalDebtAnalysis{
		WorkspaceID:    workspaceID,
		DebtByCategory: make(map[model.Category]float64, len(results)),
		Issues:         []model.DebtIssue{},
		CriticalIssues: []model.DebtIssue{},
		AnalyzedAt:     e.now(),
	}
	for _, category := range model.DebtCategories {
		if err, ok := failed[category]; ok {
			slog.WarnContext(ctx, "debt category analysis failed", "category", category, "error", err)
			analysis.MissingCategories = append(analysis.MissingCategories, category)
			continue
		}
		res := results[category]
		analysis.DebtByCategory[category] = res.hours
		analysis.TotalDebtHours += res.hours
		analysis.Issues = append(analysis.Issues, res.issues...)
	}

	sortDebtIssues(analysis.Issues)
	for _, issue := range analysis.Issues {
		if issue.Severity == model.SeverityCritical {
			analysis.CriticalIssues = append(analysis.CriticalIssues, issue)
		}
	}

	analysis.Trend = e.debtTrend(ctx, workspaceID, analysis)
	analysis.Recommendations = DebtRecommendations(analysis)

	slog.InfoContext(ctx, "technical debt analyzed",
		"total_hours", analysis.TotalDebtHours,
		"issues", len(analysis.Issues),
		"critical", len(analysis.CriticalIssues),
		"trend", analysis.Trend,
		"missing_categories", analysis.MissingCategories)

	return analysis, nil
}

func (e *engine) analyzeCategory(ctx context.Context, workspaceID string, category model.Category) (categoryResult, error) {
	findings, err := e.src.Findings.Findings(ctx, workspaceID, category)
	if err != nil {
		return categoryResult{}, fmt.Errorf("reading %s findings: %w", category, err)
	}

	res := categoryResult{issues: make([]model.DebtIssue, 0, len(findings))}
	for i, f := range findings {
		issue := model.DebtIssue{
			ID:              f.ID,
			Category:        category,
			Severity:        normalizeSeverity(f.Severity),
			Location:        f.Location,
			Description:     f.Description,
			EstimatedEffort: f.EffortHours,
			Impact:          model.Clamp(f.Impact, 0, 100),
		}
		if issue.ID == "" {
			issue.ID = fmt.Sprintf("%s-%d", category, i+1)
		}
		if issue.EstimatedEffort <= 0 {
			issue.EstimatedEffort = defaultEffortHours[issue.Severity]
		}
		if issue.Impact == 0 {
			issue.Impact = defaultImpact[issue.Severity]
		}
		res.hours += issue.EstimatedEffort
		res.issues = append(res.issues, issue)
	}
	return res, nil
}

// debtTrend compares a complete analysis to the stored baseline and then replaces it. Partial
// totals are never compared nor stored.
func (e *engine) debtTrend(ctx context.Context, workspaceID string, analysis model.TechnicalDebtAnalysis) model.DebtTrend {
	if !analysis.Complete() {
		return model.DebtTrendStable
	}

	baseline, ok, err := e.evolution.LoadDebtBaseline(ctx, workspaceID)
	if err != nil {
		slog.WarnContext(ctx, "debt baseline unavailable", "error", err)
		return model.DebtTrendStable
	}
	if err := e.evolution.SaveDebtBaseline(ctx, workspaceID, analysis.TotalDebtHours); err != nil {
		slog.WarnContext(ctx, "saving debt baseline failed", "error", err)
	}
	if !ok {
		return model.DebtTrendStable
	}
	return ClassifyDebtTrend(baseline, analysis.TotalDebtHours)
}

// ClassifyDebtTrend reports increasing or decreasing when current leaves a ±5% band around
// baseline.
func ClassifyDebtTrend(baseline, current float64) model.DebtTrend {
	switch {
	case current > baseline*(1+trendBand):
		return model.DebtTrendIncreasing
	case current < baseline*(1-trendBand):
		return model.DebtTrendDecreasing
	default:
		return model.DebtTrendStable
	}
}

// DebtRecommendations derives the fixed-threshold recommendations for an analysis.
func DebtRecommendations(a model.TechnicalDebtAnalysis) []string {
	var recs []string

	if h := a.DebtByCategory[model.CategoryComplexity]; h > 10 {
		recs = append(recs, fmt.Sprintf("Reduce complexity: %.1fh of complexity debt; split long functions and flatten nested branching", h))
	}
	if h := a.DebtByCategory[model.CategoryDuplication]; h > 5 {
		recs = append(recs, fmt.Sprintf("Deduplicate code: %.1fh of duplication debt; extract shared helpers", h))
	}
	if n := len(a.CriticalIssues); n > 0 {
		noun := "issues"
		if n == 1 {
			noun = "issue"
		}
		recs = append(recs, fmt.Sprintf("Immediately remediate %d critical %s", n, noun))
	}
	if h := a.DebtByCategory[model.CategoryDeprecated]; h > 5 {
		recs = append(recs, fmt.Sprintf("Migrate off deprecated APIs: %.1fh of deprecation debt", h))
	}
	if h := a.DebtByCategory[model.CategorySecurity]; h > 0 {
		recs = append(recs, fmt.Sprintf("Remediate security debt: %.1fh estimated", h))
	}
	for _, c := range a.MissingCategories {
		recs = append(recs, fmt.Sprintf("Debt analysis incomplete: %s findings unavailable, totals exclude this category", c))
	}

	if recs == nil {
		recs = []string{}
	}
	return recs
}

func normalizeSeverity(s model.Severity) model.Severity {
	if s.Valid() {
		return s
	}
	return model.SeverityLow
}

func sortDebtIssues(issues []model.DebtIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		return rankBefore(a.Severity, b.Severity, a.Impact, b.Impact, a.Location, b.Location)
	})
}
