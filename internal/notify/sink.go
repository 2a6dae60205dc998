package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/metrics"
	"github.com/iliyamo/service-marketplace/internal/queue"
)

// LogSink is the worker-side delivery handler.  Push and e-mail delivery
// live in separate services that tail these structured records; the sink
// only has to make every event observable exactly once per delivery.
type LogSink struct {
	Log *zap.Logger
}

// Deliver writes one structured line per event.
func (s LogSink) Deliver(_ context.Context, ev queue.NotificationEvent) error {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("kind", ev.Kind),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	if ev.SellerID != 0 {
		fields = append(fields, zap.Uint64("seller_id", ev.SellerID))
	}
	if ev.SellerEmail != "" {
		fields = append(fields, zap.String("seller_email", ev.SellerEmail))
	}
	if ev.ContactRequestID != 0 {
		fields = append(fields, zap.Uint64("contact_request_id", ev.ContactRequestID))
	}
	if ev.ServiceID != 0 {
		fields = append(fields, zap.Uint64("service_id", ev.ServiceID))
	}
	if ev.ClientEmail != "" {
		fields = append(fields, zap.String("client_email", ev.ClientEmail))
	}
	// The raw token is a bearer credential; only note that one exists.
	if ev.RatingToken != "" {
		fields = append(fields, zap.Bool("has_rating_token", true), zap.String("rating_token_expires_at", ev.RatingTokenExpires))
	}
	if ev.Score != 0 {
		fields = append(fields, zap.Int("score", ev.Score))
	}
	if ev.ModerationActionID != 0 {
		fields = append(fields, zap.Uint64("moderation_action_id", ev.ModerationActionID))
	}
	if ev.Title != "" {
		fields = append(fields, zap.String("title", ev.Title))
	}
	s.Log.Info("notification delivered", fields...)
	metrics.NotificationsDelivered.WithLabelValues(ev.Kind, "ok").Inc()
	return nil
}
