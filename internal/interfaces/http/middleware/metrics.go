package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequests     = "http.server.requests"
	metricDuration     = "http.server.duration"
	metricInFlight     = "http.server.in_flight"
	metricResponseSize = "http.server.response.size"
)

var responseSizeBuckets = []float64{128, 512, 1024, 4096, 16384, 65536, 262144, 1048576}

type requestInstruments struct {
	requests     *telemetry.Counter
	duration     *telemetry.Histogram
	responseSize metric.Int64Histogram
	inFlight     metric.Int64UpDownCounter
}

func newRequestInstruments(meter metric.Meter) (*requestInstruments, error) {
	requests, err := telemetry.NewCounter(meter, metricRequests, "Handled HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        metricDuration,
		Description: "Time spent handling HTTP requests",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	responseSize, err := meter.Int64Histogram(metricResponseSize,
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(responseSizeBuckets...),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter(metricInFlight,
		metric.WithDescription("HTTP requests currently being handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &requestInstruments{
		requests:     requests,
		duration:     duration,
		responseSize: responseSize,
		inFlight:     inFlight,
	}, nil
}

// RequestMetrics counts and times requests per method and route pattern.
// With a nil meter, or when disabled, it only passes the request on.
func RequestMetrics(meter metric.Meter, enabled bool) gin.HandlerFunc {
	var inst *requestInstruments
	if enabled && meter != nil {
		inst, _ = newRequestInstruments(meter)
	}
	if inst == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inst.inFlight.Add(ctx, 1)
		defer inst.inFlight.Add(ctx, -1)

		c.Next()

		status := c.Writer.Status()
		route := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		inst.requests.Inc(ctx, append(route, telemetry.AttrHTTPStatusCode.Int(status))...)
		inst.duration.RecordDuration(ctx, time.Since(start), append(route, attrStatusClass.String(statusClass(status)))...)
		if size := c.Writer.Size(); size > 0 {
			inst.responseSize.Record(ctx, int64(size), metric.WithAttributes(route...))
		}
	}
}

var attrStatusClass = attribute.Key("http.status_class")

// statusClass buckets a status code as "2xx", "4xx" and so on
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// routePattern keeps path parameters out of label values
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
