package insight_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/insight"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

var _ = Describe("InsightEngine", func() {
	var (
		ctx      context.Context
		code     *mockCodeEngine
		cog      *mockCognitiveEngine
		insights store.InsightStore
		now      time.Time
		engine   insight.Engine
	)

	degraded := func(context.Context) (model.CognitiveSystemHealth, error) {
		return model.CognitiveSystemHealth{
			Status:          model.HealthStatusDegraded,
			Score:           70,
			Issues:          []string{"Reasoning accuracy critically low: 0.65"},
			Recommendations: []string{"Retrain reasoning engines immediately"},
		}, nil
	}

	BeforeEach(func() {
		ctx = context.Background()
		code = &mockCodeEngine{}
		cog = &mockCognitiveEngine{}
		insights = store.NewStores(store.NewMemoryKV()).Insights()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		engine = insight.New(code, cog, insights, insight.Config{
			Workspaces: []string{"acme/api"},
			Now:        func() time.Time { return now },
		})
	})

	Describe("GenerateInsights", func() {
		It("should produce nothing when no threshold is crossed", func() {
			generated, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(BeEmpty())
		})

		It("should raise a performance insight for degraded health", func() {
			cog.healthFn = degraded

			generated, err := engine.GenerateInsights(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(1))
			in := generated[0]
			Expect(in.Category).To(Equal(model.InsightCategoryPerformance))
			Expect(in.Priority).To(Equal(model.PriorityHigh))
			Expect(in.Impact).To(Equal(30.0))
			Expect(in.Confidence).To(Equal(1.0))
			Expect(in.Recommendations).To(ConsistOf("Retrain reasoning engines immediately"))
			Expect(in.ID).To(MatchRegexp(`^performance-\d+-\d+$`))
			Expect(in.Timestamp).To(Equal(now))

			stored, err := insights.Get(ctx, in.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Title).To(Equal(in.Title))
		})

		It("should escalate quality insights above 80 hours", func() {
			code.debtFn = func(_ context.Context, ws string) (model.TechnicalDebtAnalysis, error) {
				return model.TechnicalDebtAnalysis{WorkspaceID: ws, TotalDebtHours: 90}, nil
			}
			generated, err := engine.GenerateInsightsByCategory(ctx, model.InsightCategoryQuality)

			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(1))
			Expect(generated[0].Priority).To(Equal(model.PriorityCritical))
			Expect(generated[0].WorkspaceID).To(Equal("acme/api"))
			Expect(generated[0].Impact).To(Equal(90.0))
		})

		It("should add a separate insight for critical debt issues", func() {
			code.debtFn = func(_ context.Context, ws string) (model.TechnicalDebtAnalysis, error) {
				return model.TechnicalDebtAnalysis{
					WorkspaceID:    ws,
					TotalDebtHours: 50,
					CriticalIssues: []model.DebtIssue{
						{Location: "auth.go:3", Description: "hard-coded secret", Impact: 95, Severity: model.SeverityCritical},
					},
				}, nil
			}
			generated, err := engine.GenerateInsightsByCategory(ctx, model.InsightCategoryQuality)

			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(2))
			Expect(generated[0].Priority).To(Equal(model.PriorityHigh))
			Expect(generated[1].Priority).To(Equal(model.PriorityCritical))
			Expect(generated[1].Recommendations).To(ConsistOf("Fix hard-coded secret at auth.go:3"))
			Expect(generated[0].ID).NotTo(Equal(generated[1].ID))
		})

		It("should average the benefit of high-value refactorings", func() {
			code.refactorFn = func(_ context.Context, ws string) (model.RefactoringAnalysis, error) {
				return model.RefactoringAnalysis{WorkspaceID: ws, Opportunities: []model.RefactoringOpportunity{
					{Location: "a.go", Type: "simplify", Benefit: 80, Confidence: 0.7},
					{Location: "b.go", Type: "deduplicate", Benefit: 90, Confidence: 0.9},
					{Location: "c.go", Type: "clean-up", Benefit: 50, Confidence: 0.7},
				}}, nil
			}
			generated, err := engine.GenerateInsightsByCategory(ctx, model.InsightCategoryProductivity)

			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(1))
			Expect(generated[0].Impact).To(Equal(85.0))
			Expect(generated[0].Confidence).To(BeNumerically("~", 0.8, 1e-9))
		})

		It("should only raise security insights for high or critical risk", func() {
			code.securityFn = func(_ context.Context, ws string) (model.SecurityRiskAssessment, error) {
				return model.SecurityRiskAssessment{WorkspaceID: ws, RiskLevel: model.SeverityMedium, RiskScore: 40, Confidence: 0.8}, nil
			}
			generated, err := engine.GenerateInsightsByCategory(ctx, model.InsightCategorySecurity)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(BeEmpty())

			code.securityFn = func(_ context.Context, ws string) (model.SecurityRiskAssessment, error) {
				return model.SecurityRiskAssessment{WorkspaceID: ws, RiskLevel: model.SeverityCritical, RiskScore: 95, Confidence: 0.8}, nil
			}
			generated, err = engine.GenerateInsightsByCategory(ctx, model.InsightCategorySecurity)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(1))
			Expect(generated[0].Priority).To(Equal(model.PriorityCritical))
		})

		It("should return nothing for the reserved collaboration category", func() {
			cog.healthFn = degraded
			generated, err := engine.GenerateInsightsByCategory(ctx, model.InsightCategoryCollaboration)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(BeEmpty())
		})

		It("should reject unknown categories", func() {
			_, err := engine.GenerateInsightsByCategory(ctx, "gossip")
			Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
		})

		It("should skip a failing generator and keep the rest", func() {
			cog.healthFn = degraded
			code.debtFn = func(context.Context, string) (model.TechnicalDebtAnalysis, error) {
				return model.TechnicalDebtAnalysis{}, model.ErrCollaboratorUnavailable
			}
			generated, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(1))
		})

		It("should assign unique ids within the same millisecond", func() {
			cog.healthFn = degraded
			first, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())
			second, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(first[0].ID).NotTo(Equal(second[0].ID))
			Expect(second[0].Sequence).To(BeNumerically(">", first[0].Sequence))

			all, err := insights.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})

		It("should keep impact and confidence in range", func() {
			cog.healthFn = degraded
			code.debtFn = func(_ context.Context, ws string) (model.TechnicalDebtAnalysis, error) {
				return model.TechnicalDebtAnalysis{WorkspaceID: ws, TotalDebtHours: 400}, nil
			}
			code.securityFn = func(_ context.Context, ws string) (model.SecurityRiskAssessment, error) {
				return model.SecurityRiskAssessment{WorkspaceID: ws, RiskLevel: model.SeverityHigh, RiskScore: 70, Confidence: 1.4}, nil
			}

			generated, err := engine.GenerateInsights(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(generated).To(HaveLen(3))
			for _, in := range generated {
				Expect(in.Impact).To(BeNumerically(">=", 0))
				Expect(in.Impact).To(BeNumerically("<=", 100))
				Expect(in.Confidence).To(BeNumerically(">=", 0))
				Expect(in.Confidence).To(BeNumerically("<=", 1))
				Expect(in.Priority.Valid()).To(BeTrue())
			}
		})
	})

	Describe("GetPrioritizedInsights", func() {
		BeforeEach(func() {
			cog.healthFn = degraded
			code.debtFn = func(_ context.Context, ws string) (model.TechnicalDebtAnalysis, error) {
				return model.TechnicalDebtAnalysis{WorkspaceID: ws, TotalDebtHours: 60}, nil
			}
			code.securityFn = func(_ context.Context, ws string) (model.SecurityRiskAssessment, error) {
				return model.SecurityRiskAssessment{WorkspaceID: ws, RiskLevel: model.SeverityCritical, RiskScore: 90, Confidence: 0.9}, nil
			}
		})

		It("should return at most limit insights by non-increasing score", func() {
			ranked, err := engine.GetPrioritizedInsights(ctx, 2)

			Expect(err).NotTo(HaveOccurred())
			Expect(ranked).To(HaveLen(2))
			Expect(ranked[0].Category).To(Equal(model.InsightCategorySecurity))
			Expect(ranked[0].Score()).To(BeNumerically(">=", ranked[1].Score()))
		})

		It("should reject a non-positive limit", func() {
			_, err := engine.GetPrioritizedInsights(ctx, 0)
			Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("GetPersonalizedInsights", func() {
		It("should return the first five unacknowledged insights in generation order", func() {
			cog.healthFn = degraded
			var generated []model.GeneratedInsight
			for i := 0; i < 3; i++ {
				batch, err := engine.GenerateInsights(ctx)
				Expect(err).NotTo(HaveOccurred())
				generated = append(generated, batch...)
				now = now.Add(time.Minute)
			}
			Expect(engine.AcknowledgeInsight(ctx, generated[0].ID)).To(Succeed())

			personalized, err := engine.GetPersonalizedInsights(ctx, "dev@acme.io")

			Expect(err).NotTo(HaveOccurred())
			Expect(personalized).To(HaveLen(3))
			Expect(personalized[0].ID).To(Equal(generated[1].ID))
			Expect(personalized[1].ID).To(Equal(generated[2].ID))

			for i := 0; i < 4; i++ {
				_, err := engine.GenerateInsights(ctx)
				Expect(err).NotTo(HaveOccurred())
			}
			personalized, err = engine.GetPersonalizedInsights(ctx, "dev@acme.io")
			Expect(err).NotTo(HaveOccurred())
			Expect(personalized).To(HaveLen(5))
		})
	})

	Describe("acknowledgment and feedback", func() {
		var target model.GeneratedInsight

		BeforeEach(func() {
			cog.healthFn = degraded
			generated, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())
			target = generated[0]
		})

		It("should acknowledge idempotently", func() {
			Expect(engine.AcknowledgeInsight(ctx, target.ID)).To(Succeed())
			Expect(engine.AcknowledgeInsight(ctx, target.ID)).To(Succeed())

			acked, err := insights.AcknowledgedIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(acked).To(HaveLen(1))
			Expect(acked).To(HaveKey(target.ID))
		})

		It("should reject unknown insight ids", func() {
			err := engine.AcknowledgeInsight(ctx, "quality-1-1")
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())

			_, err = engine.ProvideInsightFeedback(ctx, "quality-1-1", true, nil)
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})

		It("should report 0 acceptance without feedback", func() {
			rate, err := engine.GetInsightAcceptanceRate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(BeZero())
		})

		It("should report 1 when all feedback is helpful", func() {
			for i := 0; i < 3; i++ {
				_, err := engine.ProvideInsightFeedback(ctx, target.ID, true, nil)
				Expect(err).NotTo(HaveOccurred())
			}
			rate, err := engine.GetInsightAcceptanceRate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(1.0))
		})

		It("should append feedback records with comments", func() {
			comment := "already fixed"
			record, err := engine.ProvideInsightFeedback(ctx, target.ID, false, &comment)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ID).NotTo(BeEmpty())
			_, err = engine.ProvideInsightFeedback(ctx, target.ID, true, nil)
			Expect(err).NotTo(HaveOccurred())

			records, err := insights.Feedback(ctx, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))

			rate, err := engine.GetInsightAcceptanceRate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(Equal(0.5))
		})

		It("should keep acknowledgment independent of feedback", func() {
			_, err := engine.ProvideInsightFeedback(ctx, target.ID, true, nil)
			Expect(err).NotTo(HaveOccurred())

			acked, err := insights.IsAcknowledged(ctx, target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(acked).To(BeFalse())
		})
	})

	Describe("GetHistoricalInsights", func() {
		It("should filter by timestamp and sort newest first", func() {
			cog.healthFn = degraded
			start := now
			for i := 0; i < 3; i++ {
				_, err := engine.GenerateInsights(ctx)
				Expect(err).NotTo(HaveOccurred())
				now = now.Add(time.Hour)
			}

			history, err := engine.GetHistoricalInsights(ctx, model.TimeRange{Start: start, End: start.Add(time.Hour)})

			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Timestamp).To(Equal(start.Add(time.Hour)))
			Expect(history[1].Timestamp).To(Equal(start))
		})

		It("should reject inverted ranges", func() {
			_, err := engine.GetHistoricalInsights(ctx, model.TimeRange{Start: now, End: now.Add(-time.Hour)})
			Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("PurgeInsights", func() {
		It("should drop insights older than the cutoff", func() {
			cog.healthFn = degraded
			_, err := engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(48 * time.Hour)
			_, err = engine.GenerateInsights(ctx)
			Expect(err).NotTo(HaveOccurred())

			n, err := engine.PurgeInsights(ctx, now.Add(-24*time.Hour))

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			all, err := insights.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})
	})
})

var _ = Describe("Rank", func() {
	It("should break score ties by newer timestamp then higher sequence", func() {
		t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		list := []model.GeneratedInsight{
			{ID: "old", Priority: model.PriorityHigh, Impact: 50, Confidence: 1, Timestamp: t0, Sequence: 1},
			{ID: "new-low-seq", Priority: model.PriorityHigh, Impact: 50, Confidence: 1, Timestamp: t0.Add(time.Hour), Sequence: 2},
			{ID: "new-high-seq", Priority: model.PriorityHigh, Impact: 50, Confidence: 1, Timestamp: t0.Add(time.Hour), Sequence: 3},
			{ID: "top", Priority: model.PriorityCritical, Impact: 50, Confidence: 1, Timestamp: t0, Sequence: 0},
		}
		insight.Rank(list)

		ids := make([]string, len(list))
		for i, in := range list {
			ids[i] = in.ID
		}
		Expect(ids).To(Equal([]string{"top", "new-high-seq", "new-low-seq", "old"}))
	})
})

var _ = Describe("QualityInsights", func() {
	It("should not fire at exactly 40 hours", func() {
		Expect(insight.QualityInsights(model.TechnicalDebtAnalysis{TotalDebtHours: 40})).To(BeEmpty())
	})

	It("should lower confidence for incomplete analyses", func() {
		out := insight.QualityInsights(model.TechnicalDebtAnalysis{
			TotalDebtHours:    45,
			MissingCategories: []model.Category{model.CategorySecurity},
		})
		Expect(out).To(HaveLen(1))
		Expect(out[0].Confidence).To(Equal(0.6))
		Expect(out[0].Priority).To(Equal(model.PriorityHigh))
	})
})

var _ = Describe("ProductivityInsight", func() {
	It("should flag refactoring analyses with unreadable categories", func() {
		in, ok := insight.ProductivityInsight(model.RefactoringAnalysis{
			WorkspaceID: "acme/api",
			Opportunities: []model.RefactoringOpportunity{
				{Location: "a.go", Type: "simplify", Benefit: 80, Confidence: 0.9},
			},
			MissingCategories: []model.Category{model.CategoryDuplication},
		})
		Expect(ok).To(BeTrue())
		Expect(in.Confidence).To(Equal(0.6))
		Expect(in.SupportingData).To(HaveKeyWithValue("missing_categories", []model.Category{model.CategoryDuplication}))
	})

	It("should keep full confidence when every category was read", func() {
		in, ok := insight.ProductivityInsight(model.RefactoringAnalysis{
			WorkspaceID:   "acme/api",
			Opportunities: []model.RefactoringOpportunity{{Location: "a.go", Benefit: 80, Confidence: 0.9}},
		})
		Expect(ok).To(BeTrue())
		Expect(in.Confidence).To(Equal(0.9))
	})
})
