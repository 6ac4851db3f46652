package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so analytics code logs workspace/insight context
// without threading it through every call.
type LogFields struct {
	WorkspaceID *string // Workspace being analyzed
	UserID      *string // User for productivity/adaptation queries
	InsightID   *string // Insight being acknowledged or rated
	MessageID   *string // Redis stream message ID
	TaskType    *string // Worker task type (e.g. "collect_code_evolution")
	Component   string  // Component name (OTel semantic convention style, e.g. "insight.analytics.debt")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.WorkspaceID != nil {
		result.WorkspaceID = new.WorkspaceID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.InsightID != nil {
		result.InsightID = new.InsightID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.TaskType != nil {
		result.TaskType = new.TaskType
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: logger.Ptr(ws)})
func Ptr[T any](v T) *T {
	return &v
}
