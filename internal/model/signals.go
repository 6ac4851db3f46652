package model

import "time"

// Raw signals supplied by the code-source collaborator.

type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type ChangeRecord struct {
	Revision  string       `json:"revision"`
	Author    string       `json:"author"`
	Timestamp time.Time    `json:"timestamp"`
	Files     []FileChange `json:"files"`
}

// Finding is one static-analysis result. Zero EffortHours, Impact or Confidence fall back to
// severity-derived defaults.
type Finding struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Rule        string   `json:"rule,omitempty"`
	Description string   `json:"description"`
	EffortHours float64  `json:"effort_hours,omitempty"`
	Impact      float64  `json:"impact,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	// Metric carries the measured value behind the finding, e.g. cyclomatic complexity.
	Metric float64 `json:"metric,omitempty"`
}

type StructureSignals struct {
	ModuleCount         int     `json:"module_count"`
	IntraModuleEdges    int     `json:"intra_module_edges"`
	InterModuleEdges    int     `json:"inter_module_edges"`
	AverageFanOut       float64 `json:"average_fan_out"`
	CyclicDependencies  int     `json:"cyclic_dependencies"`
	OversizedModules    int     `json:"oversized_modules"`
	AverageComplexity   float64 `json:"average_complexity"`
	MaxComplexity       float64 `json:"max_complexity"`
	DocumentedFunctions float64 `json:"documented_functions_ratio"`
}

// FileMetrics holds raw measurements for a path (file, directory or workspace root).
type FileMetrics struct {
	Path               string  `json:"path"`
	AverageComplexity  float64 `json:"average_complexity"`
	DuplicationRatio   float64 `json:"duplication_ratio"`
	CoverageRatio      float64 `json:"coverage_ratio"`
	DocumentationRatio float64 `json:"documentation_ratio"`
	LintViolationsKLOC float64 `json:"lint_violations_per_kloc"`
}

type ActivityCounts struct {
	Commits          int `json:"commits"`
	LinesAdded       int `json:"lines_added"`
	LinesRemoved     int `json:"lines_removed"`
	MergeRequests    int `json:"merge_requests"`
	ReviewsCompleted int `json:"reviews_completed"`
	IssuesResolved   int `json:"issues_resolved"`
}
