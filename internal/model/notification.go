package model

import "time"

// Notification tells a seller about the outcome of a moderation action or
// another event concerning their account.  Only IsRead ever changes.
type Notification struct {
	ID                 uint64    `json:"id"`                             // notifications.id
	SellerID           uint64    `json:"seller_id"`                      // notifications.seller_id
	ModerationActionID *uint64   `json:"moderation_action_id,omitempty"` // notifications.moderation_action_id (nullable)
	Kind               string    `json:"kind"`                           // notifications.kind
	Title              string    `json:"title"`                          // notifications.title
	Message            string    `json:"message"`                        // notifications.message
	IsRead             bool      `json:"is_read"`                        // notifications.is_read
	CreatedAt          time.Time `json:"created_at"`                     // notifications.created_at
}
