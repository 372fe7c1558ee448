package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/items/:id", "200"))
	unmatchedBefore := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))

	for _, path := range []string{"/items/1", "/items/2", "/nothing/here"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")))
	assert.Equal(t, unmatchedBefore+1, testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Zero(t, testutil.ToFloat64(RequestInFlight))
}

func TestHandlerExposesRegistry(t *testing.T) {
	StoreErrors.WithLabelValues("CONFLICT").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `products_store_errors_total{code="CONFLICT"}`)
	assert.Contains(t, string(body), "go_goroutines")
}
