package model

import (
	"fmt"
	"time"
)

type InsightCategory string

const (
	InsightCategoryPerformance   InsightCategory = "performance"
	InsightCategoryQuality       InsightCategory = "quality"
	InsightCategoryProductivity  InsightCategory = "productivity"
	InsightCategorySecurity      InsightCategory = "security"
	InsightCategoryCollaboration InsightCategory = "collaboration"
)

// InsightCategories lists categories in generation order.
var InsightCategories = []InsightCategory{
	InsightCategoryPerformance,
	InsightCategoryQuality,
	InsightCategoryProductivity,
	InsightCategorySecurity,
	InsightCategoryCollaboration,
}

func ParseInsightCategory(raw string) (InsightCategory, error) {
	for _, c := range InsightCategories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown insight category %q", ErrInvalidInput, raw)
}

type GeneratedInsight struct {
	ID              string          `json:"id"`
	Sequence        int64           `json:"sequence"`
	Category        InsightCategory `json:"category"`
	WorkspaceID     string          `json:"workspace_id,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Priority        Priority        `json:"priority"`
	Impact          float64         `json:"impact"`
	Confidence      float64         `json:"confidence"`
	Recommendations []string        `json:"recommendations"`
	SupportingData  map[string]any  `json:"supporting_data,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Score is the ranking score: priority weight × impact × confidence.
func (i GeneratedInsight) Score() float64 {
	return float64(i.Priority.Weight()) * i.Impact * i.Confidence
}

type FeedbackRecord struct {
	ID         string    `json:"id"`
	InsightID  string    `json:"insight_id"`
	Helpful    bool      `json:"helpful"`
	Comment    *string   `json:"comment,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
