package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCartCreated()
		m.RecordCartItemAdded(3)
		m.RecordSearch(true)
		m.RecordImageUpload("/products/primary/", nil)
	})
}

func TestRecorders(t *testing.T) {
	m := New("storefront-test")

	m.RecordCartCreated()
	m.RecordCartItemAdded(2)
	m.RecordCartItemAdded(3)
	m.RecordCartItemAdded(0)
	m.RecordSearch(false)
	m.RecordSearch(true)
	m.RecordSearch(true)
	m.RecordImageUpload("/products/primary/", nil)
	m.RecordImageUpload("/products/primary/", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartsCreatedTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CartItemsAddedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageUploadsTotal.WithLabelValues("/products/primary/", "failure")))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("storefront-test")

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "storefront_http_requests_total"))
}
