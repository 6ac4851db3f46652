package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	signalChangeHistory  = "change_history"
	signalStructure      = "structure"
	signalQualityMetrics = "quality_metrics"
)

func (e *engine) TrackCodeEvolution(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.evolution",
	})

	unlock := e.lockWorkspace(workspaceID)
	defer unlock()

	history, err := e.evolution.LoadHistory(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("loading evolution history: %w", err)
	}

	now := e.now()
	cutoff := now.Add(-e.cfg.Retention)

	var previous *model.CodeEvolutionSnapshot
	since := cutoff
	if len(history) > 0 {
		previous = &history[len(history)-1]
		if previous.Timestamp.After(since) {
			since = previous.Timestamp
		}
	}

	snapshot := e.captureSnapshot(ctx, workspaceID, since, previous)
	snapshot.Timestamp = now

	// Another process may have appended since LoadHistory; the store merges under its own lock.
	pruned, err := e.evolution.AppendSnapshot(ctx, workspaceID, snapshot, cutoff)
	if err != nil {
		return nil, fmt.Errorf("saving evolution history: %w", err)
	}

	slog.InfoContext(ctx, "code evolution tracked",
		"snapshots", len(pruned),
		"lines_added", snapshot.LinesAdded,
		"lines_removed", snapshot.LinesRemoved,
		"files_changed", snapshot.FilesChanged,
		"missing", snapshot.Missing)

	return pruned, nil
}

// captureSnapshot gathers one snapshot. A failing collaborator leaves its fields at the
// previous values and is named in Missing.
func (e *engine) captureSnapshot(ctx context.Context, workspaceID string, since time.Time, previous *model.CodeEvolutionSnapshot) model.CodeEvolutionSnapshot {
	var snap model.CodeEvolutionSnapshot

	changes, err := e.src.History.ChangesSince(ctx, workspaceID, since)
	if err != nil {
		slog.WarnContext(ctx, "change history unavailable", "error", err)
		snap.Missing = append(snap.Missing, signalChangeHistory)
	} else {
		applyChanges(&snap, changes)
	}

	structure, err := e.src.Structure.Structure(ctx, workspaceID)
	if err != nil {
		slog.WarnContext(ctx, "structure signals unavailable", "error", err)
		snap.Missing = append(snap.Missing, signalStructure)
		if previous != nil {
			snap.AverageComplexity = previous.AverageComplexity
		}
	} else {
		snap.AverageComplexity = structure.AverageComplexity
		if previous != nil {
			snap.ComplexityDelta = structure.AverageComplexity - previous.AverageComplexity
		}
	}

	metrics, err := e.src.Metrics.WorkspaceMetrics(ctx, workspaceID)
	if err != nil {
		slog.WarnContext(ctx, "quality metrics unavailable", "error", err)
		snap.Missing = append(snap.Missing, signalQualityMetrics)
		if previous != nil {
			snap.QualityScore = previous.QualityScore
		}
	} else {
		snap.QualityScore = qualityFromMetrics(metrics).Overall
	}

	return snap
}

func applyChanges(snap *model.CodeEvolutionSnapshot, changes []model.ChangeRecord) {
	files := make(map[string]struct{})
	for _, c := range changes {
		for _, f := range c.Files {
			snap.LinesAdded += f.Additions
			snap.LinesRemoved += f.Deletions
			snap.LinesModified += min(f.Additions, f.Deletions)
			files[f.Path] = struct{}{}
		}
	}
	snap.FilesChanged = len(files)
}
