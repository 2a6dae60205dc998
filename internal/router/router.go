package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace/internal/handler"
	"github.com/iliyamo/service-marketplace/internal/metrics"
)

// RegisterRoutes registers operational endpoints that sit outside the /v1
// API: liveness, readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", metrics.Handler())
}

// PublicMiddleware holds the Redis-backed middleware applied to anonymous
// endpoints.  Either may be a pass-through when Redis is not configured.
type PublicMiddleware struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterPublic registers unauthenticated endpoints.  Writes are rate
// limited; rating reads are served through the response cache.
func RegisterPublic(e *echo.Echo, contact *handler.ContactHandler, rating *handler.RatingHandler, report *handler.ReportHandler, mw PublicMiddleware) {
	if mw.RateLimit == nil {
		mw.RateLimit = noop
	}
	if mw.Cache == nil {
		mw.Cache = noop
	}
	g := e.Group("/v1")

	g.POST("/services/:id/contact", contact.Create, mw.RateLimit)
	g.POST("/services/:id/reports", report.Create, mw.RateLimit)

	g.POST("/ratings/inspect", rating.Inspect, mw.RateLimit)
	g.POST("/ratings", rating.Create, mw.RateLimit)

	g.GET("/services/:id/ratings", rating.ByService, mw.Cache)
	g.GET("/sellers/:id/ratings", rating.BySeller, mw.Cache)
	g.GET("/sellers/:id/stats", rating.SellerStats, mw.Cache)
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }
