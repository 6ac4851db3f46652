package model

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight returns a numeric weight for sorting. Unknown values weigh 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	return s.Weight() > 0
}

func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// Priority shares the severity scale.
type Priority = Severity

const (
	PriorityCritical = SeverityCritical
	PriorityHigh     = SeverityHigh
	PriorityMedium   = SeverityMedium
	PriorityLow      = SeverityLow
)
