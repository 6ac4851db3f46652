package handler_test

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/middleware"
	"basegraph.app/insight/internal/http/router"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/telemetry"
)

var _ = Describe("IngestHandler", func() {
	var (
		r        *gin.Engine
		signals  *mockSignalWriter
		registry *telemetry.Registry
		auth     []string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		signals = newMockSignalWriter()
		registry = telemetry.NewRegistry()
		g := r.Group("/ingest")
		g.Use(middleware.RequireAPIKey("secret"))
		router.IngestRouter(g, handler.NewIngestHandler(signals, registry))
		auth = []string{"Authorization", "Bearer secret"}
	})

	It("rejects requests without the API key", func() {
		w := do(r, http.MethodPost, "/ingest/changes", map[string]any{"workspace_id": "acme/api", "changes": []any{}})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("stores change records for the workspace", func() {
		body := map[string]any{
			"workspace_id": "acme/api",
			"changes": []model.ChangeRecord{{
				Revision:  "abc123",
				Author:    "ada",
				Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				Files:     []model.FileChange{{Path: "main.go", Additions: 10, Deletions: 2}},
			}},
		}

		w := do(r, http.MethodPost, "/ingest/changes", body, auth...)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(decode(w)["accepted"]).To(BeNumerically("==", 1))
		Expect(signals.changes["acme/api"]).To(HaveLen(1))
	})

	It("rejects a malformed workspace id", func() {
		w := do(r, http.MethodPost, "/ingest/changes", map[string]any{"workspace_id": "../etc", "changes": []any{}}, auth...)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("routes workspace metrics and file metrics separately", func() {
		w := do(r, http.MethodPost, "/ingest/metrics", map[string]any{
			"workspace_id": "acme/api",
			"metrics":      model.FileMetrics{CoverageRatio: 0.8},
		}, auth...)
		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(signals.wsStats).To(HaveKey("acme/api"))

		w = do(r, http.MethodPost, "/ingest/metrics", map[string]any{
			"metrics": model.FileMetrics{Path: "internal/api/server.go", AverageComplexity: 7},
		}, auth...)
		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(signals.fileStats).To(HaveLen(1))
	})

	It("feeds inference events into the registry", func() {
		w := do(r, http.MethodPost, "/ingest/telemetry/inference", telemetry.InferenceEvent{
			EngineID:   "deductive",
			Succeeded:  true,
			Correct:    true,
			Confidence: 0.8,
			LatencyMs:  120,
		}, auth...)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		metrics, ok := registry.Engine("deductive")
		Expect(ok).To(BeTrue())
		Expect(metrics.TotalInferences).To(Equal(int64(1)))
	})

	It("returns 400 for a negative latency", func() {
		w := do(r, http.MethodPost, "/ingest/telemetry/inference", telemetry.InferenceEvent{
			EngineID:  "deductive",
			LatencyMs: -1,
		}, auth...)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
