// Package queue defines the notification messages exchanged over RabbitMQ
// together with the publisher used by the API process and the consumer
// run by the notification worker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// NotificationsQueue is the durable queue carrying seller and client
// notifications.
const NotificationsQueue = "marketplace.notifications"

// Event kinds.
const (
	KindContactCreated   = "contact.created"
	KindContactCompleted = "contact.completed"
	KindRatingCreated    = "rating.created"
	KindModerationPrefix = "moderation."
)

// ModerationKind returns the event kind for a moderation action.
func ModerationKind(action string) string { return KindModerationPrefix + action }

// NotificationEvent is published after a committed state change.  It is
// self-contained so the delivery side never has to query the primary
// database, which matters for delete-seller where the seller row is gone.
type NotificationEvent struct {
	ID                 string    `json:"id"`
	Kind               string    `json:"kind"`
	SellerID           uint64    `json:"seller_id,omitempty"`
	SellerEmail        string    `json:"seller_email,omitempty"`
	ServiceID          uint64    `json:"service_id,omitempty"`
	ContactRequestID   uint64    `json:"contact_request_id,omitempty"`
	ClientEmail        string    `json:"client_email,omitempty"`
	RatingToken        string    `json:"rating_token,omitempty"`
	RatingTokenExpires string    `json:"rating_token_expires_at,omitempty"`
	Score              int       `json:"score,omitempty"`
	ModerationActionID uint64    `json:"moderation_action_id,omitempty"`
	NotificationID     uint64    `json:"notification_id,omitempty"`
	Title              string    `json:"title,omitempty"`
	Message            string    `json:"message,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and UTC time on an event of the given kind.
func NewEvent(kind string) NotificationEvent {
	return NotificationEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}
