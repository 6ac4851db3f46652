package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"basegraph.app/insight/internal/model"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityHigh:
		return color.New(color.FgRed)
	case model.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func healthColor(s model.HealthStatus) *color.Color {
	switch s {
	case model.HealthStatusCritical:
		return color.New(color.FgRed, color.Bold)
	case model.HealthStatusDegraded:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printHeader(w io.Writer, title string) {
	headerColor.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", len([]rune(title))))
}

func renderInsights(w io.Writer, insights []model.GeneratedInsight) {
	if len(insights) == 0 {
		dimColor.Fprintln(w, "no insights")
		return
	}
	for _, in := range insights {
		severityColor(in.Priority).Fprintf(w, "[%-8s] ", in.Priority)
		fmt.Fprintf(w, "%s\n", in.Title)
		dimColor.Fprintf(w, "           %s  %s  impact %.0f  confidence %.2f\n",
			in.ID, in.Category, in.Impact, in.Confidence)
		for _, rec := range in.Recommendations {
			fmt.Fprintf(w, "           • %s\n", rec)
		}
	}
}

func renderDebt(w io.Writer, a model.TechnicalDebtAnalysis) {
	printHeader(w, "Technical debt: "+a.WorkspaceID)
	fmt.Fprintf(w, "Total:  %.1f h (%s)\n", a.TotalDebtHours, a.Trend)

	categories := make([]string, 0, len(a.DebtByCategory))
	for c := range a.DebtByCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(w, "  %-12s %6.1f h\n", c, a.DebtByCategory[model.Category(c)])
	}

	if len(a.MissingCategories) > 0 {
		color.New(color.FgYellow).Fprintf(w, "Missing: %v\n", a.MissingCategories)
	}
	for _, issue := range a.CriticalIssues {
		severityColor(issue.Severity).Fprintf(w, "critical ")
		fmt.Fprintf(w, "%s at %s\n", issue.Description, issue.Location)
	}
	for _, rec := range a.Recommendations {
		fmt.Fprintf(w, "• %s\n", rec)
	}
}

func renderArchitecture(w io.Writer, m model.ArchitectureQualityMetrics) {
	printHeader(w, "Architecture: "+m.WorkspaceID)
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"modularity", m.Modularity},
		{"cohesion", m.Cohesion},
		{"coupling", m.Coupling},
		{"maintainability", m.Maintainability},
		{"testability", m.Testability},
		{"overall", m.OverallScore},
	} {
		fmt.Fprintf(w, "  %-16s %5.1f\n", row.name, row.value)
	}
	for _, s := range m.Strengths {
		color.New(color.FgGreen).Fprintf(w, "+ %s\n", s)
	}
	for _, s := range m.WeakPoints {
		color.New(color.FgRed).Fprintf(w, "- %s\n", s)
	}
	if len(m.Missing) > 0 {
		color.New(color.FgYellow).Fprintf(w, "Missing: %v\n", m.Missing)
	}
}

func renderSecurity(w io.Writer, a model.SecurityRiskAssessment) {
	printHeader(w, "Security: "+a.WorkspaceID)
	severityColor(a.RiskLevel).Fprintf(w, "Risk %s", a.RiskLevel)
	fmt.Fprintf(w, " (score %.1f, confidence %.2f)\n", a.RiskScore, a.Confidence)
	for _, f := range a.Findings {
		severityColor(f.Severity).Fprintf(w, "[%-8s] ", f.Severity)
		fmt.Fprintf(w, "%s at %s\n", f.Rule, f.Location)
	}
	for _, rec := range a.Recommendations {
		fmt.Fprintf(w, "• %s\n", rec)
	}
}

func renderHealth(w io.Writer, h model.CognitiveSystemHealth) {
	printHeader(w, "Cognitive system health")
	healthColor(h.Status).Fprintf(w, "%s", h.Status)
	fmt.Fprintf(w, " (score %.1f)\n", h.Score)
	for _, issue := range h.Issues {
		color.New(color.FgYellow).Fprintf(w, "! %s\n", issue)
	}
	for _, rec := range h.Recommendations {
		fmt.Fprintf(w, "• %s\n", rec)
	}
}

func renderTrend(w io.Writer, t model.MetricTrend) {
	printHeader(w, "Trend: "+t.Metric)
	for _, p := range t.Points {
		fmt.Fprintf(w, "  %s  %10.2f\n", p.Timestamp.Format("2006-01-02 15:04"), p.Value)
	}
}
