package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func metricsRouter(t *testing.T, enabled bool) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(RequestMetrics(mp.Meter("http.server"), enabled))
	router.GET("/api/v1/order-sets/:id", func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, "order set %s", c.Param("id"))
	})
	return router, reader
}

func TestRequestMetrics_NilMeter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestMetrics(nil, true))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestMetrics_Disabled(t *testing.T) {
	router, reader := metricsRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/order-sets/a", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, collectMetrics(t, reader))
}

func TestRequestMetrics_RecordsByRoute(t *testing.T) {
	router, reader := metricsRouter(t, true)

	for _, id := range []string{"a", "b", "missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/order-sets/"+id, nil))
	}
	metrics := collectMetrics(t, reader)

	requests, ok := metrics[metricRequests].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byStatus := make(map[int64]int64)
	for _, dp := range requests.DataPoints {
		route, _ := dp.Attributes.Value("http.route")
		assert.Equal(t, "/api/v1/order-sets/:id", route.AsString())
		status, _ := dp.Attributes.Value("http.status_code")
		byStatus[status.AsInt64()] = dp.Value
	}
	assert.Equal(t, map[int64]int64{200: 2, 404: 1}, byStatus)

	duration, ok := metrics[metricDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	byClass := make(map[string]uint64)
	for _, dp := range duration.DataPoints {
		class, _ := dp.Attributes.Value("http.status_class")
		byClass[class.AsString()] = dp.Count
	}
	assert.Equal(t, map[string]uint64{"2xx": 2, "4xx": 1}, byClass)

	// the 404 wrote no body
	size, ok := metrics[metricResponseSize].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, uint64(2), size.DataPoints[0].Count)

	inFlight, ok := metrics[metricInFlight].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inFlight.DataPoints, 1)
	assert.Zero(t, inFlight.DataPoints[0].Value)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusCreated))
	assert.Equal(t, "4xx", statusClass(http.StatusConflict))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}

func TestRoutePattern_Unmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var got string
	router := gin.New()
	router.NoRoute(func(c *gin.Context) {
		got = routePattern(c)
		c.Status(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, "unmatched", got)
}
