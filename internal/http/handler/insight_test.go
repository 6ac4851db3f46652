package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/router"
	"basegraph.app/insight/internal/model"
)

var _ = Describe("InsightHandler", func() {
	var (
		r      *gin.Engine
		engine *mockInsightEngine
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		engine = &mockInsightEngine{}
		router.InsightRouter(r.Group("/insights"), handler.NewInsightHandler(engine), "secret")
	})

	Describe("Generate", func() {
		It("runs every generator without a category", func() {
			engine.generateFn = func(context.Context) ([]model.GeneratedInsight, error) {
				return []model.GeneratedInsight{{ID: "quality-1", Category: model.InsightCategoryQuality}}, nil
			}

			w := do(r, http.MethodPost, "/insights/generate", nil)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(decode(w)["insights"]).To(HaveLen(1))
		})

		It("narrows to one category", func() {
			var got model.InsightCategory
			engine.generateByCategoryFn = func(_ context.Context, c model.InsightCategory) ([]model.GeneratedInsight, error) {
				got = c
				return nil, nil
			}

			w := do(r, http.MethodPost, "/insights/generate?category=security", nil)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(got).To(Equal(model.InsightCategorySecurity))
		})

		It("returns 400 for an unknown category", func() {
			w := do(r, http.MethodPost, "/insights/generate?category=vibes", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 503 when a collaborator is down", func() {
			engine.generateFn = func(context.Context) ([]model.GeneratedInsight, error) {
				return nil, fmt.Errorf("%w: knowledge graph", model.ErrCollaboratorUnavailable)
			}

			w := do(r, http.MethodPost, "/insights/generate", nil)
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("returns 500 with a generic message for unexpected errors", func() {
			engine.generateFn = func(context.Context) ([]model.GeneratedInsight, error) {
				return nil, fmt.Errorf("disk on fire")
			}

			w := do(r, http.MethodPost, "/insights/generate", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)["error"]).To(Equal("failed to generate insights"))
		})
	})

	Describe("Prioritized", func() {
		It("defaults the limit to 10", func() {
			var limit int
			engine.prioritizedFn = func(_ context.Context, l int) ([]model.GeneratedInsight, error) {
				limit = l
				return nil, nil
			}

			w := do(r, http.MethodGet, "/insights/prioritized", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(limit).To(Equal(10))
		})

		It("rejects a non-numeric limit", func() {
			w := do(r, http.MethodGet, "/insights/prioritized?limit=many", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("passes the engine's invalid-input error through as 400", func() {
			engine.prioritizedFn = func(context.Context, int) ([]model.GeneratedInsight, error) {
				return nil, fmt.Errorf("%w: limit must be positive", model.ErrInvalidInput)
			}

			w := do(r, http.MethodGet, "/insights/prioritized?limit=0", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Acknowledge", func() {
		It("returns 204", func() {
			var got string
			engine.acknowledgeFn = func(_ context.Context, id string) error {
				got = id
				return nil
			}

			w := do(r, http.MethodPost, "/insights/quality-1/acknowledge", nil)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(got).To(Equal("quality-1"))
		})

		It("returns 404 for an unknown insight", func() {
			engine.acknowledgeFn = func(context.Context, string) error {
				return fmt.Errorf("%w: insight missing", model.ErrNotFound)
			}

			w := do(r, http.MethodPost, "/insights/missing/acknowledge", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Feedback", func() {
		It("records helpful feedback with a comment", func() {
			var (
				gotHelpful bool
				gotComment *string
			)
			engine.feedbackFn = func(_ context.Context, id string, helpful bool, comment *string) (model.FeedbackRecord, error) {
				gotHelpful, gotComment = helpful, comment
				return model.FeedbackRecord{ID: "f-1", InsightID: id, Helpful: helpful, Comment: comment}, nil
			}

			w := do(r, http.MethodPost, "/insights/quality-1/feedback", map[string]any{"helpful": true, "comment": "spot on"})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(gotHelpful).To(BeTrue())
			Expect(gotComment).NotTo(BeNil())
			Expect(*gotComment).To(Equal("spot on"))
			Expect(decode(w)["insight_id"]).To(Equal("quality-1"))
		})

		It("accepts helpful=false", func() {
			called := false
			engine.feedbackFn = func(_ context.Context, _ string, helpful bool, _ *string) (model.FeedbackRecord, error) {
				called = true
				Expect(helpful).To(BeFalse())
				return model.FeedbackRecord{}, nil
			}

			w := do(r, http.MethodPost, "/insights/quality-1/feedback", map[string]any{"helpful": false})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(called).To(BeTrue())
		})

		It("returns 400 when helpful is missing", func() {
			w := do(r, http.MethodPost, "/insights/quality-1/feedback", map[string]any{"comment": "meh"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("AcceptanceRate", func() {
		It("returns the rate", func() {
			engine.acceptanceFn = func(context.Context) (float64, error) { return 0.75, nil }

			w := do(r, http.MethodGet, "/insights/acceptance-rate", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["rate"]).To(BeNumerically("==", 0.75))
		})
	})

	Describe("Historical", func() {
		It("returns 400 when start is after end", func() {
			w := do(r, http.MethodGet, "/insights/history?start=2026-03-02T00:00:00Z&end=2026-03-01T00:00:00Z", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed timestamp", func() {
			w := do(r, http.MethodGet, "/insights/history?start=yesterday&end=2026-03-01T00:00:00Z", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Purge", func() {
		It("requires the API key", func() {
			w := do(r, http.MethodDelete, "/insights?before=2026-03-01T00:00:00Z", nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("purges before the cutoff", func() {
			var cutoff time.Time
			engine.purgeFn = func(_ context.Context, c time.Time) (int, error) {
				cutoff = c
				return 3, nil
			}

			w := do(r, http.MethodDelete, "/insights?before=2026-03-01T00:00:00Z", nil, "X-API-Key", "secret")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["purged"]).To(BeNumerically("==", 3))
			Expect(cutoff).To(BeTemporally("==", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
		})
	})
})
