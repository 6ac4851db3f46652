// Package source adapts the code-source collaborators (change history, static-analysis
// findings, structure and coverage metrics, contributor activity) behind typed interfaces.
package source

import (
	"context"
	"time"

	"basegraph.app/insight/internal/model"
)

type ChangeHistorySource interface {
	// ChangesSince returns change records with Timestamp after since, oldest first.
	ChangesSince(ctx context.Context, workspaceID string, since time.Time) ([]model.ChangeRecord, error)
}

type FindingSource interface {
	Findings(ctx context.Context, workspaceID string, category model.Category) ([]model.Finding, error)
}

type StructureSource interface {
	Structure(ctx context.Context, workspaceID string) (model.StructureSignals, error)
}

type FileMetricsSource interface {
	FileMetrics(ctx context.Context, path string) (model.FileMetrics, error)
	WorkspaceMetrics(ctx context.Context, workspaceID string) (model.FileMetrics, error)
}

type ActivitySource interface {
	Activity(ctx context.Context, userID string, period model.TimeRange) (model.ActivityCounts, error)
}

// Composite groups one implementation per concern. Fields may point at the same value.
type Composite struct {
	History   ChangeHistorySource
	Findings  FindingSource
	Structure StructureSource
	Metrics   FileMetricsSource
	Activity  ActivitySource
}

// NewComposite uses the ingested source for every concern. Callers swap in GitLab or ArangoDB
// backed implementations when those collaborators are configured.
func NewComposite(ingested *Ingested) Composite {
	return Composite{
		History:   ingested,
		Findings:  ingested,
		Structure: ingested,
		Metrics:   ingested,
		Activity:  ingested,
	}
}
