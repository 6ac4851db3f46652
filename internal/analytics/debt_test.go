package analytics_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

var _ = Describe("AnalyzeTechnicalDebt", func() {
	var (
		ctx       context.Context
		srcs      *mockSources
		evolution store.EvolutionStore
		engine    analytics.Engine
		findings  map[model.Category][]model.Finding
		failing   map[model.Category]bool
	)

	BeforeEach(func() {
		ctx = context.Background()
		srcs = newMockSources()
		evolution = store.NewStores(store.NewMemoryKV()).Evolution()
		findings = map[model.Category][]model.Finding{}
		failing = map[model.Category]bool{}

		srcs.findings.findingsFn = func(_ context.Context, _ string, category model.Category) ([]model.Finding, error) {
			if failing[category] {
				return nil, fmt.Errorf("scanner down: %w", model.ErrCollaboratorUnavailable)
			}
			return findings[category], nil
		}

		engine = analytics.New(srcs.composite(), evolution, analytics.Config{
			Now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
		})
	})

	It("should total hours per category with severity defaults", func() {
		findings[model.CategoryComplexity] = []model.Finding{
			{Severity: model.SeverityCritical, Location: "a.go:10"},
			{Severity: model.SeverityCritical, Location: "b.go:4"},
		}
		findings[model.CategoryCodeSmell] = []model.Finding{
			{Severity: model.SeverityLow, Location: "c.go:1", EffortHours: 0.5},
		}

		a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")

		Expect(err).NotTo(HaveOccurred())
		Expect(a.Complete()).To(BeTrue())
		Expect(a.DebtByCategory[model.CategoryComplexity]).To(Equal(16.0))
		Expect(a.DebtByCategory[model.CategoryCodeSmell]).To(Equal(0.5))
		Expect(a.TotalDebtHours).To(Equal(16.5))
		Expect(a.Issues).To(HaveLen(3))
		Expect(a.CriticalIssues).To(HaveLen(2))
		Expect(a.Issues[0].Impact).To(Equal(90.0))
		Expect(a.Issues[2].Location).To(Equal("c.go:1"))
		Expect(a.Trend).To(Equal(model.DebtTrendStable))
	})

	It("should qualify the critical recommendation by cardinality", func() {
		findings[model.CategorySecurity] = []model.Finding{
			{Severity: model.SeverityCritical, Location: "auth.go:3"},
		}
		a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Recommendations).To(ContainElement("Immediately remediate 1 critical issue"))

		findings[model.CategorySecurity] = append(findings[model.CategorySecurity],
			model.Finding{Severity: model.SeverityCritical, Location: "auth.go:9"})
		a, err = engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Recommendations).To(ContainElement("Immediately remediate 2 critical issues"))
	})

	Context("when a category analyzer fails", func() {
		BeforeEach(func() {
			failing[model.CategoryDuplication] = true
			findings[model.CategoryComplexity] = []model.Finding{
				{Severity: model.SeverityHigh, Location: "a.go:1", EffortHours: 12},
			}
		})

		It("should return partial results with the category flagged", func() {
			a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")

			Expect(err).NotTo(HaveOccurred())
			Expect(a.MissingCategories).To(ConsistOf(model.CategoryDuplication))
			Expect(a.DebtByCategory).NotTo(HaveKey(model.CategoryDuplication))
			Expect(a.TotalDebtHours).To(Equal(12.0))
			Expect(a.Recommendations).To(ContainElement(ContainSubstring("incomplete: duplication")))
			Expect(a.Recommendations).To(ContainElement(ContainSubstring("Reduce complexity")))
		})

		It("should neither compare nor store the baseline", func() {
			a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Trend).To(Equal(model.DebtTrendStable))

			_, ok, err := evolution.LoadDebtBaseline(ctx, "acme/api")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	It("should report the trend against the previous complete analysis", func() {
		findings[model.CategoryCodeSmell] = []model.Finding{{Severity: model.SeverityMedium, Location: "a.go:1", EffortHours: 10}}
		a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Trend).To(Equal(model.DebtTrendStable))

		findings[model.CategoryCodeSmell][0].EffortHours = 12
		a, err = engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Trend).To(Equal(model.DebtTrendIncreasing))

		findings[model.CategoryCodeSmell][0].EffortHours = 11.7
		a, err = engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Trend).To(Equal(model.DebtTrendStable))
	})

	It("should return no recommendations for a clean workspace", func() {
		a, err := engine.AnalyzeTechnicalDebt(ctx, "acme/api")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Recommendations).NotTo(BeNil())
		Expect(a.Recommendations).To(BeEmpty())
		Expect(a.TotalDebtHours).To(BeZero())
	})
})

var _ = DescribeTable("ClassifyDebtTrend",
	func(baseline, current float64, want model.DebtTrend) {
		Expect(analytics.ClassifyDebtTrend(baseline, current)).To(Equal(want))
	},
	Entry("inside the band", 100.0, 104.0, model.DebtTrendStable),
	Entry("just under the upper edge", 100.0, 104.9, model.DebtTrendStable),
	Entry("above the band", 100.0, 106.0, model.DebtTrendIncreasing),
	Entry("below the band", 100.0, 94.0, model.DebtTrendDecreasing),
	Entry("zero baseline, zero current", 0.0, 0.0, model.DebtTrendStable),
	Entry("zero baseline, new debt", 0.0, 1.0, model.DebtTrendIncreasing),
)

var _ = DescribeTable("DebtRecommendations thresholds",
	func(category model.Category, hours float64, prefix string, fires bool) {
		recs := analytics.DebtRecommendations(model.TechnicalDebtAnalysis{
			DebtByCategory: map[model.Category]float64{category: hours},
		})
		if fires {
			Expect(recs).To(ConsistOf(HavePrefix(prefix)))
		} else {
			Expect(recs).To(BeEmpty())
		}
	},
	Entry("complexity at 10h", model.CategoryComplexity, 10.0, "Reduce complexity", false),
	Entry("complexity above 10h", model.CategoryComplexity, 10.1, "Reduce complexity", true),
	Entry("duplication at 5h", model.CategoryDuplication, 5.0, "Deduplicate code", false),
	Entry("duplication above 5h", model.CategoryDuplication, 5.1, "Deduplicate code", true),
	Entry("deprecated at 5h", model.CategoryDeprecated, 5.0, "Migrate off deprecated APIs", false),
	Entry("deprecated above 5h", model.CategoryDeprecated, 5.1, "Migrate off deprecated APIs", true),
	Entry("security at 0h", model.CategorySecurity, 0.0, "Remediate security debt", false),
	Entry("any security debt", model.CategorySecurity, 0.1, "Remediate security debt", true),
)

var _ = Describe("DebtRecommendations", func() {
	It("should name critical issues and missing categories", func() {
		recs := analytics.DebtRecommendations(model.TechnicalDebtAnalysis{
			CriticalIssues:    []model.DebtIssue{{Severity: model.SeverityCritical}},
			MissingCategories: []model.Category{model.CategorySecurity},
		})
		Expect(recs).To(HaveLen(2))
		Expect(recs[0]).To(Equal("Immediately remediate 1 critical issue"))
		Expect(recs[1]).To(HavePrefix("Debt analysis incomplete: security findings unavailable"))
	})
})
