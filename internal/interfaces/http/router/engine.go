package router

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig configures the middleware stack
type EngineConfig struct {
	ServiceName    string
	TracingEnabled bool
	MetricsEnabled bool
	Meter          metric.Meter
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
}

// Handlers are the HTTP handlers served by the engine. Outbox may be nil
// when the outbox relay is disabled.
type Handlers struct {
	System     *handler.SystemHandler
	Checkout   *handler.CheckoutHandler
	Commission *handler.CommissionHandler
	Outbox     *handler.OutboxHandler
}

// NewEngine builds the gin engine with the middleware stack and all routes.
//
// Middleware order:
//  1. Recovery
//  2. RequestID, so the tracing and logging layers can read it
//  3. Tracing with request attributes and 5xx error marking
//  4. Request logging
//  5. Metrics
//  6. Security headers, CORS and the body limit
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) *gin.Engine {
	middleware.SetupValidator()
	engine := gin.New()

	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.TracingEnabled
	if cfg.ServiceName != "" {
		tracing.ServiceName = cfg.ServiceName
	}
	engine.Use(middleware.TracingWithConfig(tracing))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.RequestMetrics(cfg.Meter, cfg.MetricsEnabled))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	registerRoutes(engine, h, log)
	return engine
}

// APIVersion is the path segment every API route is mounted under
const APIVersion = "v1"

func apiGroups(h Handlers) []Group {
	system := Group{
		Name:   "system",
		Prefix: "/system",
		Routes: []Route{GET("/info", h.System.GetSystemInfo)},
	}
	if h.Outbox != nil {
		system.Groups = append(system.Groups, Group{
			Name:   "outbox",
			Prefix: "/outbox",
			Routes: []Route{
				GET("/stats", h.Outbox.GetStats),
				GET("/dead", h.Outbox.GetDeadLetterEntries),
				POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries),
				GET("/:id", h.Outbox.GetEntry),
				POST("/:id/retry", h.Outbox.RetryDeadEntry),
			},
		})
	}

	return []Group{
		{Name: "checkout", Prefix: "/carts", Routes: []Route{
			POST("/:id/complete", h.Checkout.CompleteCart),
		}},
		{Name: "order-sets", Prefix: "/order-sets", Routes: []Route{
			GET("/:id", h.Checkout.GetOrderSet),
		}},
		{Name: "orders", Prefix: "/orders", Routes: []Route{
			GET("/:id/commission-lines", h.Commission.ListOrderLines),
		}},
		{Name: "commission", Prefix: "/commission-rates", Routes: []Route{
			POST("", h.Commission.CreateRate),
			GET("", h.Commission.ListRates),
		}},
		system,
	}
}

func registerRoutes(engine *gin.Engine, h Handlers, log *zap.Logger) {
	engine.GET("/health", h.System.Health)

	groups := apiGroups(h)
	Mount(engine, APIVersion, groups...)

	for _, g := range groups {
		log.Debug("Routes registered",
			zap.String("group", g.Name),
			zap.Strings("endpoints", g.Endpoints("/api/"+APIVersion)),
		)
	}
}
