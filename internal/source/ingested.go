package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

const (
	changesPrefix   = "src/changes/"
	findingsPrefix  = "src/findings/"
	structurePrefix = "src/structure/"
	fileMetricsKey  = "src/metrics/file/"
	wsMetricsKey    = "src/metrics/workspace/"
)

// Ingested serves signals that external scanners push through the API. It implements every
// source interface and is the fallback when no GitLab or ArangoDB collaborator is configured.
type Ingested struct {
	kv store.KV
}

func NewIngested(kv store.KV) *Ingested {
	return &Ingested{kv: kv}
}

func changeKey(workspaceID string, rec model.ChangeRecord) string {
	return fmt.Sprintf("%s%s/%020d-%s", changesPrefix, url.PathEscape(workspaceID), rec.Timestamp.UnixNano(), rec.Revision)
}

func (s *Ingested) PutChanges(ctx context.Context, workspaceID string, records []model.ChangeRecord) error {
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding change %s: %w", rec.Revision, err)
		}
		if err := s.kv.Put(ctx, changeKey(workspaceID, rec), raw); err != nil {
			return fmt.Errorf("storing change %s: %w", rec.Revision, err)
		}
	}
	return nil
}

func (s *Ingested) ChangesSince(ctx context.Context, workspaceID string, since time.Time) ([]model.ChangeRecord, error) {
	records, err := s.scanChanges(ctx, changesPrefix+url.PathEscape(workspaceID)+"/")
	if err != nil {
		return nil, err
	}

	out := make([]model.ChangeRecord, 0, len(records))
	for _, rec := range records {
		if rec.Timestamp.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Ingested) scanChanges(ctx context.Context, prefix string) ([]model.ChangeRecord, error) {
	entries, err := s.kv.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: reading change history: %v", model.ErrCollaboratorUnavailable, err)
	}

	records := make([]model.ChangeRecord, 0, len(entries))
	for _, e := range entries {
		var rec model.ChangeRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("decoding change %s: %w", e.Key, err)
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records, nil
}

// PutFindings replaces the findings of one category for a workspace.
func (s *Ingested) PutFindings(ctx context.Context, workspaceID string, category model.Category, findings []model.Finding) error {
	for i := range findings {
		findings[i].Category = category
	}
	return s.putJSON(ctx, findingsPrefix+url.PathEscape(workspaceID)+"/"+string(category), findings)
}

// Findings returns an empty list when nothing was pushed for the category.
func (s *Ingested) Findings(ctx context.Context, workspaceID string, category model.Category) ([]model.Finding, error) {
	var findings []model.Finding
	found, err := s.getJSON(ctx, findingsPrefix+url.PathEscape(workspaceID)+"/"+string(category), &findings)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s findings: %v", model.ErrCollaboratorUnavailable, category, err)
	}
	if !found {
		return []model.Finding{}, nil
	}
	return findings, nil
}

func (s *Ingested) PutStructure(ctx context.Context, workspaceID string, signals model.StructureSignals) error {
	return s.putJSON(ctx, structurePrefix+url.PathEscape(workspaceID), signals)
}

func (s *Ingested) Structure(ctx context.Context, workspaceID string) (model.StructureSignals, error) {
	var signals model.StructureSignals
	found, err := s.getJSON(ctx, structurePrefix+url.PathEscape(workspaceID), &signals)
	if err != nil {
		return model.StructureSignals{}, fmt.Errorf("%w: reading structure: %v", model.ErrCollaboratorUnavailable, err)
	}
	if !found {
		return model.StructureSignals{}, fmt.Errorf("%w: no structure signals for workspace %s", model.ErrCollaboratorUnavailable, workspaceID)
	}
	return signals, nil
}

func (s *Ingested) PutFileMetrics(ctx context.Context, metrics model.FileMetrics) error {
	return s.putJSON(ctx, fileMetricsKey+metrics.Path, metrics)
}

func (s *Ingested) FileMetrics(ctx context.Context, path string) (model.FileMetrics, error) {
	var metrics model.FileMetrics
	found, err := s.getJSON(ctx, fileMetricsKey+path, &metrics)
	if err != nil {
		return model.FileMetrics{}, fmt.Errorf("%w: reading file metrics: %v", model.ErrCollaboratorUnavailable, err)
	}
	if !found {
		return model.FileMetrics{}, fmt.Errorf("%w: no metrics for path %s", model.ErrNotFound, path)
	}
	return metrics, nil
}

func (s *Ingested) PutWorkspaceMetrics(ctx context.Context, workspaceID string, metrics model.FileMetrics) error {
	return s.putJSON(ctx, wsMetricsKey+url.PathEscape(workspaceID), metrics)
}

func (s *Ingested) WorkspaceMetrics(ctx context.Context, workspaceID string) (model.FileMetrics, error) {
	var metrics model.FileMetrics
	found, err := s.getJSON(ctx, wsMetricsKey+url.PathEscape(workspaceID), &metrics)
	if err != nil {
		return model.FileMetrics{}, fmt.Errorf("%w: reading workspace metrics: %v", model.ErrCollaboratorUnavailable, err)
	}
	if !found {
		return model.FileMetrics{}, fmt.Errorf("%w: no coverage metrics for workspace %s", model.ErrCollaboratorUnavailable, workspaceID)
	}
	return metrics, nil
}

// Activity derives commit and line counts from ingested change records across workspaces.
// Merge requests, reviews and issues are only known to the GitLab source.
func (s *Ingested) Activity(ctx context.Context, userID string, period model.TimeRange) (model.ActivityCounts, error) {
	records, err := s.scanChanges(ctx, changesPrefix)
	if err != nil {
		return model.ActivityCounts{}, err
	}

	var counts model.ActivityCounts
	for _, rec := range records {
		if rec.Author != userID || !period.Contains(rec.Timestamp) {
			continue
		}
		counts.Commits++
		for _, f := range rec.Files {
			counts.LinesAdded += f.Additions
			counts.LinesRemoved += f.Deletions
		}
	}
	return counts, nil
}

func (s *Ingested) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.kv.Put(ctx, key, raw)
}

func (s *Ingested) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}
