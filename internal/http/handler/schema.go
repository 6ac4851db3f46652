package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/telemetry"
)

var schemaEntities = map[string]any{
	"code-evolution-snapshot":        model.CodeEvolutionSnapshot{},
	"technical-debt-analysis":        model.TechnicalDebtAnalysis{},
	"architecture-quality":           model.ArchitectureQualityMetrics{},
	"bug-prediction":                 model.BugPrediction{},
	"refactoring-opportunity":        model.RefactoringOpportunity{},
	"performance-bottleneck":         model.PerformanceBottleneckPrediction{},
	"security-risk-assessment":       model.SecurityRiskAssessment{},
	"developer-productivity":         model.DeveloperProductivity{},
	"code-quality-score":             model.CodeQualityScore{},
	"metric-trend":                   model.MetricTrend{},
	"cognitive-performance-snapshot": model.CognitivePerformanceSnapshot{},
	"reasoning-engine-metrics":       model.ReasoningEngineMetrics{},
	"learning-algorithm-metrics":     model.LearningAlgorithmMetrics{},
	"user-adaptation-metrics":        model.UserAdaptationMetrics{},
	"cognitive-system-health":        model.CognitiveSystemHealth{},
	"generated-insight":              model.GeneratedInsight{},
	"feedback-record":                model.FeedbackRecord{},
	"change-record":                  model.ChangeRecord{},
	"finding":                        model.Finding{},
	"structure-signals":              model.StructureSignals{},
	"file-metrics":                   model.FileMetrics{},
	"inference-event":                telemetry.InferenceEvent{},
	"training-event":                 telemetry.TrainingEvent{},
	"interaction-event":              telemetry.InteractionEvent{},
}

// SchemaHandler publishes JSON schemas of the data model for scanners and dashboards.
type SchemaHandler struct {
	reflector *jsonschema.Reflector
}

func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{
		reflector: &jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		},
	}
}

func (h *SchemaHandler) List(c *gin.Context) {
	names := make([]string, 0, len(schemaEntities))
	for name := range schemaEntities {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"entities": names})
}

func (h *SchemaHandler) Get(c *gin.Context) {
	v, ok := schemaEntities[c.Param("entity")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown entity"})
		return
	}
	c.JSON(http.StatusOK, h.reflector.Reflect(v))
}
