package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newMiddlewareRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})
	return router
}

func get(router *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Run("RejectsAfterLimitPlusBurst", func(t *testing.T) {
		counter := &fakeCounter{counts: make(map[string]int64)}
		router := newMiddlewareRouter(RateLimit(counter, 2, 1, quietLogger()))

		for i := 0; i < 3; i++ {
			w := get(router, nil)
			require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
			assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		}

		w := get(router, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("FailsOpen", func(t *testing.T) {
		counter := &fakeCounter{err: errors.New("redis: connection refused")}
		router := newMiddlewareRouter(RateLimit(counter, 1, 0, quietLogger()))

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, get(router, nil).Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	router := newMiddlewareRouter(RequestID())

	w := get(router, http.Header{"X-Request-Id": {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = get(router, nil)
	generated := w.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor("CONFLICT"))
	assert.Equal(t, http.StatusBadRequest, StatusFor("CONSTRAINT_VIOLATION"))
	assert.Equal(t, http.StatusBadRequest, StatusFor("INVALID_REFERENCE"))
	assert.Equal(t, http.StatusNotFound, StatusFor("NOT_FOUND"))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
