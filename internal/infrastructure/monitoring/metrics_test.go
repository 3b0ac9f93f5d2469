package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

func TestEditorMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SaveSettled("draw", editor.SaveAcknowledged, 10*time.Millisecond)
	m.SaveSettled("draw", editor.SaveAbandoned, 2500*time.Millisecond)
	m.SaveSettled("draw", editor.SaveAbandoned, 2500*time.Millisecond)
	m.SyscallHandled("space.readPage", nil)
	m.SyscallHandled("space.readPage", errors.New("x"))
	m.MessageDropped("teleport")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SavesTotal.WithLabelValues("draw", "acknowledged")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SavesTotal.WithLabelValues("draw", "abandoned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallsTotal.WithLabelValues("space.readPage", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesDropped.WithLabelValues("teleport")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.SavesAcked)
	assert.Equal(t, int64(2), snap.SavesAbandoned)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/pages/*name", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/pages/a", "/api/pages/b", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/pages/*name", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, int64(1), m.Snapshot().TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "notebook_http_requests_total")
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	NewTimer(m).Stop(2, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WidgetsEmitted.WithLabelValues("media")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WidgetsEmitted.WithLabelValues("page")))
}
