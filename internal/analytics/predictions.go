package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	bugReportThreshold      = 0.2
	bugCommitSaturation     = 10.0
	bugChurnSaturation      = 1000.0
	bugComplexitySaturation = 30.0

	defaultRefactorConfidence   = 0.7
	defaultBottleneckConfidence = 0.6
	defaultSecurityConfidence   = 0.5
)

var refactorTypeByCategory = map[model.Category]string{
	model.CategoryDuplication: "deduplicate",
	model.CategoryComplexity:  "simplify",
	model.CategoryCodeSmell:   "clean-up",
}

var refactorCategories = []model.Category{
	model.CategoryCodeSmell,
	model.CategoryDuplication,
	model.CategoryComplexity,
}

type fileChurn struct {
	commits int
	churn   int
}

func (e *engine) PredictBugs(ctx context.Context, workspaceID string) ([]model.BugPrediction, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.bugs",
	})

	since := e.now().Add(-e.cfg.Retention)
	changes, err := e.src.History.ChangesSince(ctx, workspaceID, since)
	if err != nil {
		return nil, fmt.Errorf("reading change history: %w", err)
	}

	perFile := make(map[string]*fileChurn)
	for _, c := range changes {
		touched := make(map[string]struct{})
		for _, f := range c.Files {
			fc, ok := perFile[f.Path]
			if !ok {
				fc = &fileChurn{}
				perFile[f.Path] = fc
			}
			fc.churn += f.Additions + f.Deletions
			if _, seen := touched[f.Path]; !seen {
				fc.commits++
				touched[f.Path] = struct{}{}
			}
		}
	}

	complexity, complexityErr := e.complexityByFile(ctx, workspaceID)
	if complexityErr != nil {
		slog.WarnContext(ctx, "complexity findings unavailable", "error", complexityErr)
	}

	predictions := make([]model.BugPrediction, 0)
	for path, fc := range perFile {
		cx := complexity[path]
		p := BugProbability(fc.commits, fc.churn, cx)
		if p < bugReportThreshold {
			continue
		}

		reasons := []string{
			fmt.Sprintf("changed in %d commits", fc.commits),
			fmt.Sprintf("%d lines of churn", fc.churn),
		}
		if complexityErr != nil {
			reasons = append(reasons, "complexity data unavailable")
		} else if cx > 0 {
			reasons = append(reasons, fmt.Sprintf("cyclomatic complexity %.0f", cx))
		}

		severity := severityForProbability(p)
		predictions = append(predictions, model.BugPrediction{
			Location:        path,
			Probability:     p,
			Severity:        severity,
			Confidence:      min(1, 0.5+float64(fc.commits)/20),
			Reasons:         reasons,
			Recommendations: bugRecommendations(severity, cx),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i], predictions[j]
		return rankBefore(a.Severity, b.Severity, a.Probability, b.Probability, a.Location, b.Location)
	})

	slog.InfoContext(ctx, "bugs predicted", "files", len(perFile), "predictions", len(predictions))
	return predictions, nil
}

// BugProbability blends commit frequency, churn and complexity, each saturating at 1.
func BugProbability(commits, churn int, complexity float64) float64 {
	p := 0.4*min(1, float64(commits)/bugCommitSaturation) +
		0.3*min(1, float64(churn)/bugChurnSaturation) +
		0.3*min(1, complexity/bugComplexitySaturation)
	return model.Clamp(p, 0, 1)
}

func severityForProbability(p float64) model.Severity {
	switch {
	case p >= 0.8:
		return model.SeverityCritical
	case p >= 0.6:
		return model.SeverityHigh
	case p >= 0.4:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func bugRecommendations(severity model.Severity, complexity float64) []string {
	recs := []string{"Add regression tests around recent changes"}
	if complexity > 15 {
		recs = append(recs, "Split complex functions before further changes")
	}
	if severity.Weight() >= model.SeverityHigh.Weight() {
		recs = append(recs, "Require an extra reviewer for changes to this file")
	}
	return recs
}

// complexityByFile keys complexity findings by the file part of their location ("path:line").
func (e *engine) complexityByFile(ctx context.Context, workspaceID string) (map[string]float64, error) {
	findings, err := e.src.Findings.Findings(ctx, workspaceID, model.CategoryComplexity)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(findings))
	for _, f := range findings {
		path, _, _ := strings.Cut(f.Location, ":")
		if f.Metric > out[path] {
			out[path] = f.Metric
		}
	}
	return out, nil
}

func (e *engine) IdentifyRefactoringOpportunities(ctx context.Context, workspaceID string) (model.RefactoringAnalysis, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return model.RefactoringAnalysis{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.refactoring",
	})

	analysis := model.RefactoringAnalysis{
		WorkspaceID:   workspaceID,
		Opportunities: make([]model.RefactoringOpportunity, 0),
	}
	var errs []error
	for _, category := range refactorCategories {
		findings, err := e.src.Findings.Findings(ctx, workspaceID, category)
		if err != nil {
			slog.WarnContext(ctx, "refactoring source unavailable", "category", category, "error", err)
			errs = append(errs, fmt.Errorf("reading %s findings: %w", category, err))
			analysis.MissingCategories = append(analysis.MissingCategories, category)
			continue
		}
		for _, f := range findings {
			analysis.Opportunities = append(analysis.Opportunities, refactoringFromFinding(category, f))
		}
	}
	if len(errs) == len(refactorCategories) {
		return model.RefactoringAnalysis{}, errors.Join(errs...)
	}

	ops := analysis.Opportunities
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		return rankBefore(a.Priority, b.Priority, a.Benefit, b.Benefit, a.Location, b.Location)
	})

	slog.InfoContext(ctx, "refactoring opportunities identified",
		"count", len(ops), "missing_categories", analysis.MissingCategories)
	return analysis, nil
}

func refactoringFromFinding(category model.Category, f model.Finding) model.RefactoringOpportunity {
	severity := normalizeSeverity(f.Severity)

	kind := f.Rule
	if kind == "" {
		kind = refactorTypeByCategory[category]
	}
	benefit := model.Clamp(f.Impact, 0, 100)
	if benefit == 0 {
		benefit = defaultImpact[severity]
	}
	effort := f.EffortHours
	if effort <= 0 {
		effort = defaultEffortHours[severity]
	}
	confidence := model.Clamp(f.Confidence, 0, 1)
	if confidence == 0 {
		confidence = defaultRefactorConfidence
	}

	o := model.RefactoringOpportunity{
		Location:    f.Location,
		Type:        kind,
		Priority:    severity,
		Benefit:     benefit,
		EffortHours: effort,
		Confidence:  confidence,
		Description: f.Description,
	}
	switch category {
	case model.CategoryDuplication:
		o.Recommendations = []string{"Extract the duplicated block into a shared helper"}
	case model.CategoryComplexity:
		o.Recommendations = []string{"Split the function and flatten nested branches"}
	default:
		o.Recommendations = []string{"Clean up the flagged code smell"}
	}
	return o
}

func (e *engine) PredictPerformanceBottlenecks(ctx context.Context, workspaceID string) ([]model.PerformanceBottleneckPrediction, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.performance",
	})

	findings, err := e.src.Findings.Findings(ctx, workspaceID, model.CategoryPerformance)
	if err != nil {
		return nil, fmt.Errorf("reading performance findings: %w", err)
	}

	predictions := make([]model.PerformanceBottleneckPrediction, 0, len(findings))
	for _, f := range findings {
		severity := normalizeSeverity(f.Severity)
		kind := f.Rule
		if kind == "" {
			kind = "hotspot"
		}
		impact := model.Clamp(f.Impact, 0, 100)
		if impact == 0 {
			impact = defaultImpact[severity]
		}
		confidence := model.Clamp(f.Confidence, 0, 1)
		if confidence == 0 {
			confidence = defaultBottleneckConfidence
		}
		predictions = append(predictions, model.PerformanceBottleneckPrediction{
			Location:        f.Location,
			Kind:            kind,
			Severity:        severity,
			Impact:          impact,
			Confidence:      confidence,
			Description:     f.Description,
			Recommendations: []string{fmt.Sprintf("Profile %s under production load", f.Location)},
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i], predictions[j]
		return rankBefore(a.Severity, b.Severity, a.Impact, b.Impact, a.Location, b.Location)
	})

	slog.InfoContext(ctx, "performance bottlenecks predicted", "count", len(predictions))
	return predictions, nil
}

func (e *engine) AssessSecurityRisks(ctx context.Context, workspaceID string) (model.SecurityRiskAssessment, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return model.SecurityRiskAssessment{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.security",
	})

	start := time.Now()
	findings, err := e.src.Findings.Findings(ctx, workspaceID, model.CategorySecurity)
	if err != nil {
		return model.SecurityRiskAssessment{}, fmt.Errorf("reading security findings: %w", err)
	}

	a := model.SecurityRiskAssessment{
		WorkspaceID: workspaceID,
		RiskLevel:   model.SeverityLow,
		Findings:    make([]model.SecurityFinding, 0, len(findings)),
		Confidence:  defaultSecurityConfidence,
	}

	confidenceSum := 0.0
	for _, f := range findings {
		severity := normalizeSeverity(f.Severity)
		impact := model.Clamp(f.Impact, 0, 100)
		if impact == 0 {
			impact = defaultImpact[severity]
		}
		confidence := model.Clamp(f.Confidence, 0, 1)
		if confidence == 0 {
			confidence = defaultSecurityConfidence
		}
		confidenceSum += confidence

		if severity.Weight() > a.RiskLevel.Weight() {
			a.RiskLevel = severity
		}
		a.RiskScore = max(a.RiskScore, impact)

		a.Findings = append(a.Findings, model.SecurityFinding{
			Location:        f.Location,
			Rule:            f.Rule,
			Severity:        severity,
			Impact:          impact,
			Confidence:      confidence,
			Description:     f.Description,
			Recommendations: []string{fmt.Sprintf("Fix %s at %s", ruleOrCategory(f.Rule), f.Location)},
		})
	}
	if len(findings) > 0 {
		a.Confidence = confidenceSum / float64(len(findings))
	}

	sort.SliceStable(a.Findings, func(i, j int) bool {
		x, y := a.Findings[i], a.Findings[j]
		return rankBefore(x.Severity, y.Severity, x.Impact, y.Impact, x.Location, y.Location)
	})
	a.Recommendations = securityRecommendations(a.RiskLevel, len(a.Findings))

	slog.InfoContext(ctx, "security risks assessed",
		"risk_level", a.RiskLevel,
		"findings", len(a.Findings),
		"duration_ms", time.Since(start).Milliseconds())
	return a, nil
}

func ruleOrCategory(rule string) string {
	if rule == "" {
		return "security finding"
	}
	return rule
}

func securityRecommendations(level model.Severity, findings int) []string {
	switch level {
	case model.SeverityCritical:
		return []string{
			"Block releases until critical security findings are fixed",
			"Rotate any credentials exposed by the affected code",
		}
	case model.SeverityHigh:
		return []string{"Schedule remediation of high-severity security findings this iteration"}
	case model.SeverityMedium:
		return []string{"Track medium-severity security findings in the backlog"}
	default:
		if findings == 0 {
			return []string{"No security findings; keep dependency and secret scanning enabled"}
		}
		return []string{"Review low-severity security findings during routine maintenance"}
	}
}

// rankBefore orders by severity desc, then value desc, then location asc.
func rankBefore(sa, sb model.Severity, va, vb float64, la, lb string) bool {
	if sa.Weight() != sb.Weight() {
		return sa.Weight() > sb.Weight()
	}
	if va != vb {
		return va > vb
	}
	return la < lb
}
