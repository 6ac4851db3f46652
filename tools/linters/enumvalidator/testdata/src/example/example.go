package example

type Severity string

const (
	SeverityHigh Severity = "high"
	SeverityLow  Severity = "low"
)

type Priority = Severity

type TaskType string

const (
	TaskTypeGenerateInsights TaskType = "generate_insights"
)

type Insight struct {
	Priority Priority
}

type Task struct {
	TaskType TaskType
}

func bad() {
	i := &Insight{}
	i.Priority = "urgent" // want "enum field Priority assigned string literal"

	t := &Task{}
	t.TaskType = "reindex" // want "enum field TaskType assigned string literal"

	_ = Task{TaskType: "reindex"} // want "enum field TaskType assigned string literal"
}

func good() {
	i := &Insight{}
	i.Priority = SeverityHigh // OK: using constant

	t := &Task{TaskType: TaskTypeGenerateInsights}
	_ = t
}

func alsoGood() {
	// OK: Variable, not literal
	p := SeverityLow
	i := &Insight{Priority: p}
	_ = i
}
