package handler_test

import (
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/router"
)

var _ = Describe("SchemaHandler", func() {
	var r *gin.Engine

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		r = gin.New()
		router.SchemaRouter(r.Group("/schema"), handler.NewSchemaHandler())
	})

	It("lists the entities", func() {
		w := do(r, http.MethodGet, "/schema", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["entities"]).To(ContainElement("generated-insight"))
	})

	It("reflects an entity's JSON fields", func() {
		w := do(r, http.MethodGet, "/schema/generated-insight", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		props, ok := decode(w)["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKey("impact"))
		Expect(props).To(HaveKey("recommendations"))
	})

	It("returns 404 for an unknown entity", func() {
		w := do(r, http.MethodGet, "/schema/widget", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
