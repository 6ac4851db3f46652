package model

import "time"

type CodeEvolutionSnapshot struct {
	Timestamp         time.Time `json:"timestamp"`
	LinesAdded        int       `json:"lines_added"`
	LinesRemoved      int       `json:"lines_removed"`
	LinesModified     int       `json:"lines_modified"`
	FilesChanged      int       `json:"files_changed"`
	AverageComplexity float64   `json:"average_complexity"`
	ComplexityDelta   float64   `json:"complexity_delta"`
	QualityScore      float64   `json:"quality_score"`
	Missing           []string  `json:"missing,omitempty"`
}

// Category classifies a static-analysis finding. The first five are debt categories.
type Category string

const (
	CategoryCodeSmell   Category = "code-smell"
	CategoryDuplication Category = "duplication"
	CategoryComplexity  Category = "complexity"
	CategoryDeprecated  Category = "deprecated"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
)

// DebtCategories lists the categories counted towards technical debt, in report order.
var DebtCategories = []Category{
	CategoryCodeSmell,
	CategoryDuplication,
	CategoryComplexity,
	CategoryDeprecated,
	CategorySecurity,
}

type DebtTrend string

const (
	DebtTrendIncreasing DebtTrend = "increasing"
	DebtTrendDecreasing DebtTrend = "decreasing"
	DebtTrendStable     DebtTrend = "stable"
)

type DebtIssue struct {
	ID              string   `json:"id"`
	Category        Category `json:"category"`
	Severity        Severity `json:"severity"`
	Location        string   `json:"location"`
	Description     string   `json:"description"`
	EstimatedEffort float64  `json:"estimated_effort_hours"`
	Impact          float64  `json:"impact"`
}

type TechnicalDebtAnalysis struct {
	WorkspaceID       string               `json:"workspace_id"`
	TotalDebtHours    float64              `json:"total_debt_hours"`
	DebtByCategory    map[Category]float64 `json:"debt_by_category"`
	Issues            []DebtIssue          `json:"issues"`
	CriticalIssues    []DebtIssue          `json:"critical_issues"`
	Recommendations   []string             `json:"recommendations"`
	Trend             DebtTrend            `json:"trend"`
	MissingCategories []Category           `json:"missing_categories,omitempty"`
	AnalyzedAt        time.Time            `json:"analyzed_at"`
}

// Complete reports whether every debt category analyzer returned.
func (a TechnicalDebtAnalysis) Complete() bool {
	return len(a.MissingCategories) == 0
}

type ArchitectureQualityMetrics struct {
	WorkspaceID     string   `json:"workspace_id"`
	Modularity      float64  `json:"modularity"`
	Cohesion        float64  `json:"cohesion"`
	Coupling        float64  `json:"coupling"`
	Maintainability float64  `json:"maintainability"`
	Testability     float64  `json:"testability"`
	OverallScore    float64  `json:"overall_score"`
	WeakPoints      []string `json:"weak_points"`
	Strengths       []string `json:"strengths"`
	Missing         []string `json:"missing,omitempty"`
}

type BugPrediction struct {
	Location        string   `json:"location"`
	Probability     float64  `json:"probability"`
	Severity        Severity `json:"severity"`
	Confidence      float64  `json:"confidence"`
	Reasons         []string `json:"reasons"`
	Recommendations []string `json:"recommendations"`
}

type RefactoringOpportunity struct {
	Location        string   `json:"location"`
	Type            string   `json:"type"`
	Priority        Priority `json:"priority"`
	Benefit         float64  `json:"benefit"`
	EffortHours     float64  `json:"effort_hours"`
	Confidence      float64  `json:"confidence"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// RefactoringAnalysis lists the opportunities found across finding categories. A category whose
// source failed is named in MissingCategories instead of contributing opportunities.
type RefactoringAnalysis struct {
	WorkspaceID       string                   `json:"workspace_id"`
	Opportunities     []RefactoringOpportunity `json:"opportunities"`
	MissingCategories []Category               `json:"missing_categories,omitempty"`
}

func (a RefactoringAnalysis) Complete() bool {
	return len(a.MissingCategories) == 0
}

type PerformanceBottleneckPrediction struct {
	Location        string   `json:"location"`
	Kind            string   `json:"kind"`
	Severity        Severity `json:"severity"`
	Impact          float64  `json:"impact"`
	Confidence      float64  `json:"confidence"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

type SecurityFinding struct {
	Location        string   `json:"location"`
	Rule            string   `json:"rule"`
	Severity        Severity `json:"severity"`
	Impact          float64  `json:"impact"`
	Confidence      float64  `json:"confidence"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

type SecurityRiskAssessment struct {
	WorkspaceID     string            `json:"workspace_id"`
	RiskLevel       Severity          `json:"risk_level"`
	RiskScore       float64           `json:"risk_score"`
	Findings        []SecurityFinding `json:"findings"`
	Confidence      float64           `json:"confidence"`
	Recommendations []string          `json:"recommendations"`
}

type DeveloperProductivity struct {
	UserID            string    `json:"user_id"`
	Period            TimeRange `json:"period"`
	Commits           int       `json:"commits"`
	LinesAdded        int       `json:"lines_added"`
	LinesRemoved      int       `json:"lines_removed"`
	MergeRequests     int       `json:"merge_requests"`
	ReviewsCompleted  int       `json:"reviews_completed"`
	IssuesResolved    int       `json:"issues_resolved"`
	ProductivityScore float64   `json:"productivity_score"`
}

type CodeQualityScore struct {
	Path          string  `json:"path"`
	Complexity    float64 `json:"complexity"`
	Duplication   float64 `json:"duplication"`
	Coverage      float64 `json:"coverage"`
	Documentation float64 `json:"documentation"`
	Style         float64 `json:"style"`
	Overall       float64 `json:"overall"`
}

type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricTrend is a metric resampled onto evenly spaced points. Samples counts the stored
// snapshots the points were built from; with zero samples every point has value 0.
type MetricTrend struct {
	Metric  string       `json:"metric"`
	Range   TimeRange    `json:"range"`
	Points  []TrendPoint `json:"points"`
	Samples int          `json:"samples"`
}
