// Package metrics defines the Prometheus collectors of the marketplace
// and the echo middleware that records HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)

	ContactRequestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contact_requests_created_total", Help: "Contact requests accepted.",
	})
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contact_request_transitions_total", Help: "Seller status transitions by target status."},
		[]string{"target"},
	)
	RatingTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rating_tokens_issued_total", Help: "Rating tokens issued on completion.",
	})
	RatingTokenRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rating_token_redemptions_total", Help: "Rating token redemption attempts by result."},
		[]string{"result"},
	)
	ModerationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "moderation_actions_total", Help: "Committed moderation actions by type."},
		[]string{"action"},
	)
	CascadedContactRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cascaded_contact_requests_total", Help: "Contact requests moved by moderation sweeps."},
		[]string{"target"},
	)
	NotificationsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_enqueued_total", Help: "Outbound notification events accepted by the dispatcher.",
	})
	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_dropped_total", Help: "Outbound notification events dropped because the buffer was full.",
	})
	NotificationsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifications_published_total", Help: "Publish attempts by result."},
		[]string{"result"},
	)
	NotificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifications_delivered_total", Help: "Worker deliveries by event kind and result."},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPLatency,
		ContactRequestsCreated, StatusTransitions,
		RatingTokensIssued, RatingTokenRedemptions,
		ModerationActions, CascadedContactRequests,
		NotificationsEnqueued, NotificationsDropped, NotificationsPublished, NotificationsDelivered,
	)
}

// Middleware records request count and latency per registered route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method
			HTTPLatency.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
			HTTPRequests.WithLabelValues(path, method, strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc { return echo.WrapHandler(promhttp.Handler()) }
