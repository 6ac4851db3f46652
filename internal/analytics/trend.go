package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"basegraph.app/insight/internal/model"
)

var trendMetrics = map[string]func(model.CodeEvolutionSnapshot) float64{
	"lines_added":      func(s model.CodeEvolutionSnapshot) float64 { return float64(s.LinesAdded) },
	"lines_removed":    func(s model.CodeEvolutionSnapshot) float64 { return float64(s.LinesRemoved) },
	"lines_modified":   func(s model.CodeEvolutionSnapshot) float64 { return float64(s.LinesModified) },
	"files_changed":    func(s model.CodeEvolutionSnapshot) float64 { return float64(s.FilesChanged) },
	"complexity_delta": func(s model.CodeEvolutionSnapshot) float64 { return s.ComplexityDelta },
	"quality_score":    func(s model.CodeEvolutionSnapshot) float64 { return s.QualityScore },
}

// TrendMetrics lists the metric names accepted by GetMetricTrend.
func TrendMetrics() []string {
	names := make([]string, 0, len(trendMetrics))
	for name := range trendMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMetricTrend reads the stored history without collecting a new snapshot.
func (e *engine) GetMetricTrend(ctx context.Context, workspaceID, metric string, r model.TimeRange) (model.MetricTrend, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return model.MetricTrend{}, err
	}
	if err := r.Validate(); err != nil {
		return model.MetricTrend{}, err
	}
	extract, ok := trendMetrics[metric]
	if !ok {
		return model.MetricTrend{}, fmt.Errorf("%w: unknown metric %q", model.ErrInvalidInput, metric)
	}

	history, err := e.evolution.LoadHistory(ctx, workspaceID)
	if err != nil {
		return model.MetricTrend{}, fmt.Errorf("loading evolution history: %w", err)
	}

	samples := make([]model.TrendPoint, 0, len(history))
	for _, s := range history {
		samples = append(samples, model.TrendPoint{Timestamp: s.Timestamp, Value: extract(s)})
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })

	return model.MetricTrend{
		Metric:  metric,
		Range:   r,
		Points:  Resample(samples, r, e.cfg.TrendPoints),
		Samples: len(samples),
	}, nil
}

// Resample returns n evenly spaced points over r, linearly interpolated between samples
// (sorted by time) and held flat outside them. A zero-length range yields one point. Without
// samples the points keep their timestamps and carry value 0.
func Resample(samples []model.TrendPoint, r model.TimeRange, n int) []model.TrendPoint {
	if n < 1 {
		return []model.TrendPoint{}
	}
	if r.Duration() == 0 || n == 1 {
		return []model.TrendPoint{{Timestamp: r.Start, Value: interpolate(samples, r.Start)}}
	}

	step := r.Duration() / time.Duration(n-1)
	points := make([]model.TrendPoint, n)
	for i := range n {
		t := r.Start.Add(step * time.Duration(i))
		if i == n-1 {
			t = r.End
		}
		points[i] = model.TrendPoint{Timestamp: t, Value: interpolate(samples, t)}
	}
	return points
}

func interpolate(samples []model.TrendPoint, t time.Time) float64 {
	if len(samples) == 0 {
		return 0
	}
	first, last := samples[0], samples[len(samples)-1]
	if !t.After(first.Timestamp) {
		return first.Value
	}
	if !t.Before(last.Timestamp) {
		return last.Value
	}

	// first index with Timestamp >= t; 0 < i < len(samples) here
	i := sort.Search(len(samples), func(i int) bool { return !samples[i].Timestamp.Before(t) })
	a, b := samples[i-1], samples[i]
	span := b.Timestamp.Sub(a.Timestamp)
	if span == 0 {
		return b.Value
	}
	frac := float64(t.Sub(a.Timestamp)) / float64(span)
	return a.Value + frac*(b.Value-a.Value)
}
