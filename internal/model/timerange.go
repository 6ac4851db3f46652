package model

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: time range requires start and end", ErrInvalidInput)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: time range start %s is after end %s", ErrInvalidInput,
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies in [Start, End].
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Identifiers are workspace paths ("group/project"), engine ids, algorithm ids and user ids.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/@:-]{0,127}$`)

// ValidateID rejects empty or malformed identifiers. kind names the identifier in the error.
func ValidateID(kind, id string) error {
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%w: malformed %s %q", ErrInvalidInput, kind, id)
	}
	return nil
}

// CleanPath validates a source file path and returns it in slash-cleaned form. Any name a
// repository can hold is accepted, including dot directories, absolute paths and spaces.
func CleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: path %q contains a NUL byte", ErrInvalidInput, p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == "/" {
		return "", fmt.Errorf("%w: path %q names no file", ErrInvalidInput, p)
	}
	return cleaned, nil
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
