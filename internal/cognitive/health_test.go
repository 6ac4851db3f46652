package cognitive_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/model"
)

func snapshot(accuracy, latency, convergence, prediction float64) model.CognitivePerformanceSnapshot {
	return model.CognitivePerformanceSnapshot{
		ReasoningAccuracy:   accuracy,
		ReasoningLatencyMs:  latency,
		LearningConvergence: convergence,
		PredictionAccuracy:  prediction,
	}
}

var _ = DescribeTable("Health",
	func(snap model.CognitivePerformanceSnapshot, score float64, status model.HealthStatus) {
		h := cognitive.Health(snap)
		Expect(h.Score).To(Equal(score))
		Expect(h.Status).To(Equal(status))
		Expect(h.Recommendations).To(HaveLen(len(h.Issues)))
	},
	Entry("all within targets", snapshot(0.95, 100, 0.9, 0.9), 100.0, model.HealthStatusHealthy),
	Entry("accuracy below 0.7", snapshot(0.65, 100, 0.9, 0.9), 70.0, model.HealthStatusDegraded),
	Entry("accuracy exactly 0.7", snapshot(0.7, 100, 0.9, 0.9), 85.0, model.HealthStatusHealthy),
	Entry("accuracy exactly 0.8", snapshot(0.8, 100, 0.9, 0.9), 100.0, model.HealthStatusHealthy),
	Entry("latency exactly 200", snapshot(0.9, 200, 0.9, 0.9), 100.0, model.HealthStatusHealthy),
	Entry("latency exactly 500", snapshot(0.9, 500, 0.9, 0.9), 90.0, model.HealthStatusHealthy),
	Entry("latency above 500", snapshot(0.9, 501, 0.9, 0.9), 80.0, model.HealthStatusHealthy),
	Entry("convergence exactly 0.6", snapshot(0.9, 100, 0.6, 0.9), 100.0, model.HealthStatusHealthy),
	Entry("prediction exactly 0.7", snapshot(0.9, 100, 0.9, 0.7), 100.0, model.HealthStatusHealthy),
	Entry("penalties accumulate", snapshot(0.5, 600, 0.5, 0.9), 35.0, model.HealthStatusCritical),
	Entry("every threshold violated", snapshot(0.5, 600, 0.5, 0.5), 20.0, model.HealthStatusCritical),
)

var _ = DescribeTable("ClassifyHealth",
	func(score float64, want model.HealthStatus) {
		Expect(cognitive.ClassifyHealth(score)).To(Equal(want))
	},
	Entry("80 is healthy", 80.0, model.HealthStatusHealthy),
	Entry("just under 80 is degraded", 79.9, model.HealthStatusDegraded),
	Entry("50 is degraded", 50.0, model.HealthStatusDegraded),
	Entry("just under 50 is critical", 49.9, model.HealthStatusCritical),
)

var _ = Describe("Recommendations", func() {
	It("should emit exactly one message when no rule fires", func() {
		recs := cognitive.Recommendations(snapshot(0.9, 100, 0.9, 0.9), 0.2, true)
		Expect(recs).To(Equal([]string{cognitive.OptimalRecommendation}))
	})

	It("should skip the growth rule without a baseline", func() {
		recs := cognitive.Recommendations(snapshot(0.9, 100, 0.9, 0.9), 0, false)
		Expect(recs).To(Equal([]string{cognitive.OptimalRecommendation}))
	})

	It("should report missing metrics instead of evaluating them", func() {
		snap := snapshot(0, 0, 0.9, 0.9)
		snap.Missing = map[string]string{
			model.MetricReasoningAccuracy: "no reasoning engines registered",
			model.MetricReasoningLatency:  "no reasoning engines registered",
		}
		recs := cognitive.Recommendations(snap, 0.2, true)
		Expect(recs).To(HaveLen(2))
		Expect(recs[0]).To(HavePrefix("Restore reasoning_accuracy collection"))
	})
})

var _ = Describe("ParseNotFoundPolicy", func() {
	It("should default to error", func() {
		p, err := cognitive.ParseNotFoundPolicy("")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(cognitive.NotFoundError))
	})

	It("should reject unknown policies", func() {
		_, err := cognitive.ParseNotFoundPolicy("ignore")
		Expect(err).To(MatchError(ContainSubstring("unknown not-found policy")))
	})
})
