package handler_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/router"
	"basegraph.app/insight/internal/model"
)

var _ = Describe("CodeHandler", func() {
	var (
		r      *gin.Engine
		engine *mockCodeEngine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		engine = &mockCodeEngine{}
		router.CodeRouter(r.Group("/code"), handler.NewCodeHandler(engine))
	})

	It("reads the workspace from the query string", func() {
		var got string
		engine.debtFn = func(_ context.Context, ws string) (model.TechnicalDebtAnalysis, error) {
			got = ws
			return model.TechnicalDebtAnalysis{WorkspaceID: ws, TotalDebtHours: 12.5, Trend: model.DebtTrendStable}, nil
		}

		w := do(r, http.MethodGet, "/code/debt?workspace=acme/api", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(got).To(Equal("acme/api"))
		resp := decode(w)
		Expect(resp["total_debt_hours"]).To(BeNumerically("==", 12.5))
		Expect(resp["trend"]).To(Equal("stable"))
	})

	It("maps invalid workspace ids to 400", func() {
		engine.debtFn = func(context.Context, string) (model.TechnicalDebtAnalysis, error) {
			return model.TechnicalDebtAnalysis{}, fmt.Errorf("%w: malformed workspace", model.ErrInvalidInput)
		}

		w := do(r, http.MethodGet, "/code/debt", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("parses the productivity period", func() {
		var period model.TimeRange
		engine.productivityFn = func(_ context.Context, _ string, p model.TimeRange) (model.DeveloperProductivity, error) {
			period = p
			return model.DeveloperProductivity{}, nil
		}

		w := do(r, http.MethodGet, "/code/productivity?user=ada&start=2026-01-01T00:00:00Z&end=2026-02-01T00:00:00Z", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(period.Duration().Hours()).To(BeNumerically("==", 31*24))
	})

	It("rejects a productivity query without a period", func() {
		w := do(r, http.MethodGet, "/code/productivity?user=ada", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("forwards the trend metric", func() {
		var metric string
		engine.trendFn = func(_ context.Context, _ string, m string, _ model.TimeRange) (model.MetricTrend, error) {
			metric = m
			return model.MetricTrend{Metric: m}, nil
		}

		w := do(r, http.MethodGet, "/code/trend?workspace=acme/api&metric=quality_score&start=2026-01-01T00:00:00Z&end=2026-02-01T00:00:00Z", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(metric).To(Equal("quality_score"))
	})
})
