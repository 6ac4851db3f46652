package queue

type TaskType string

const (
	TaskTypeCollectCodeEvolution    TaskType = "collect_code_evolution"
	TaskTypeCollectCognitiveMetrics TaskType = "collect_cognitive_metrics"
	TaskTypeGenerateInsights        TaskType = "generate_insights"
	TaskTypePurgeInsights           TaskType = "purge_insights"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeCollectCodeEvolution, TaskTypeCollectCognitiveMetrics, TaskTypeGenerateInsights, TaskTypePurgeInsights:
		return true
	}
	return false
}

// Task is what producers enqueue. WorkspaceID is required for collect_code_evolution;
// Category optionally narrows generate_insights to one generator.
type Task struct {
	TaskType    TaskType
	WorkspaceID string
	Category    string
	TraceID     *string
	Attempt     int
}
