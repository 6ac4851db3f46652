package analytics_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

func score(v float64) *float64 { return &v }

var _ = Describe("ClassifyArchitecture", func() {
	It("should classify strictly below 60 as weak and strictly above 80 as strong", func() {
		m := analytics.ClassifyArchitecture("acme/api", analytics.ArchitectureScores{
			Modularity:      score(55),
			Cohesion:        score(60),
			Coupling:        score(30),
			Maintainability: score(80),
			Testability:     score(80.5),
		})

		Expect(m.WeakPoints).To(HaveLen(1))
		Expect(m.WeakPoints[0]).To(HavePrefix("Modularity"))
		Expect(m.Strengths).To(HaveLen(1))
		Expect(m.Strengths[0]).To(HavePrefix("Testability"))
		Expect(m.OverallScore).To(BeNumerically("~", (55+60+70+80+80.5)/5.0, 1e-9))
	})

	It("should classify coupling on its inverted value", func() {
		m := analytics.ClassifyArchitecture("acme/api", analytics.ArchitectureScores{Coupling: score(45)})
		Expect(m.Coupling).To(Equal(45.0))
		Expect(m.WeakPoints).To(ConsistOf(HavePrefix("Coupling is high")))

		m = analytics.ClassifyArchitecture("acme/api", analytics.ArchitectureScores{Coupling: score(10)})
		Expect(m.Strengths).To(ConsistOf(HavePrefix("Coupling is low")))
		Expect(m.OverallScore).To(Equal(90.0))
	})

	It("should average only available sub-scores", func() {
		m := analytics.ClassifyArchitecture("acme/api", analytics.ArchitectureScores{
			Modularity:  score(70),
			Testability: score(90),
		})
		Expect(m.OverallScore).To(Equal(80.0))
	})

	It("should score zero with nothing available", func() {
		m := analytics.ClassifyArchitecture("acme/api", analytics.ArchitectureScores{})
		Expect(m.OverallScore).To(BeZero())
		Expect(m.WeakPoints).To(BeEmpty())
		Expect(m.Strengths).To(BeEmpty())
	})
})

var _ = Describe("AssessArchitectureQuality", func() {
	var (
		ctx    context.Context
		srcs   *mockSources
		engine analytics.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		srcs = newMockSources()
		engine = analytics.New(srcs.composite(), store.NewStores(store.NewMemoryKV()).Evolution(), analytics.Config{})
	})

	It("should derive sub-scores from structure and coverage", func() {
		srcs.structure.structureFn = func(_ context.Context, _ string) (model.StructureSignals, error) {
			return model.StructureSignals{
				ModuleCount:        5,
				IntraModuleEdges:   75,
				InterModuleEdges:   25,
				AverageFanOut:      1,
				CyclicDependencies: 1,
				OversizedModules:   1,
				AverageComplexity:  7,
			}, nil
		}
		srcs.metrics.workspaceMetricsFn = func(_ context.Context, _ string) (model.FileMetrics, error) {
			return model.FileMetrics{CoverageRatio: 0.65}, nil
		}

		m, err := engine.AssessArchitectureQuality(ctx, "acme/api")

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Modularity).To(Equal(75.0))
		Expect(m.Cohesion).To(Equal(75.0))
		Expect(m.Coupling).To(Equal(25.0))
		Expect(m.Maintainability).To(Equal(90.0))
		Expect(m.Testability).To(BeNumerically("~", 65, 1e-9))
		Expect(m.Missing).To(BeEmpty())
		Expect(m.OverallScore).To(BeNumerically("~", (75+75+75+90+65)/5.0, 1e-9))
		Expect(m.Strengths).To(ConsistOf(HavePrefix("Maintainability")))
	})

	It("should list sub-scores it could not compute", func() {
		srcs.structure.structureFn = func(_ context.Context, _ string) (model.StructureSignals, error) {
			return model.StructureSignals{}, model.ErrCollaboratorUnavailable
		}
		srcs.metrics.workspaceMetricsFn = func(_ context.Context, _ string) (model.FileMetrics, error) {
			return model.FileMetrics{CoverageRatio: 0.9}, nil
		}

		m, err := engine.AssessArchitectureQuality(ctx, "acme/api")

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Missing).To(ConsistOf("modularity", "cohesion", "coupling", "maintainability"))
		Expect(m.OverallScore).To(BeNumerically("~", 90, 1e-9))
	})
})
