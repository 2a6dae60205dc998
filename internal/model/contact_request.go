package model

import "time"

// Status is the lifecycle state of a contact request.  The first five
// values are set by sellers; SERVICE_DELETED and SELLER_INACTIVE are only
// ever written by moderation cascades.
type Status string

const (
	StatusNew            Status = "NEW"
	StatusSeen           Status = "SEEN"
	StatusInProcess      Status = "IN_PROCESS"
	StatusCompleted      Status = "COMPLETED"
	StatusNoInterest     Status = "NO_INTEREST"
	StatusServiceDeleted Status = "SERVICE_DELETED"
	StatusSellerInactive Status = "SELLER_INACTIVE"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []Status{
	StatusNew, StatusSeen, StatusInProcess, StatusCompleted,
	StatusNoInterest, StatusServiceDeleted, StatusSellerInactive,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsCascadeTerminal reports whether s can only be reached through a
// moderation cascade.
func (s Status) IsCascadeTerminal() bool {
	return s == StatusServiceDeleted || s == StatusSellerInactive
}

// ContactRequest is one client inquiry against a service listing.  It
// corresponds to a row in the `contact_requests` table.
type ContactRequest struct {
	ID                   uint64     `json:"id"`                                // contact_requests.id
	ServiceID            uint64     `json:"service_id"`                        // contact_requests.service_id
	ClientName           string     `json:"client_name"`                       // contact_requests.client_name
	ClientEmail          string     `json:"client_email"`                      // contact_requests.client_email
	ClientPhone          *string    `json:"client_phone,omitempty"`            // contact_requests.client_phone (nullable)
	TaskDescription      string     `json:"task_description"`                  // contact_requests.task_description
	Status               Status     `json:"status"`                            // contact_requests.status
	RatingToken          *string    `json:"-"`                                 // contact_requests.rating_token (nullable)
	RatingTokenExpiresAt *time.Time `json:"rating_token_expires_at,omitempty"` // contact_requests.rating_token_expires_at
	CreatedAt            time.Time  `json:"created_at"`                        // contact_requests.created_at
	UpdatedAt            time.Time  `json:"updated_at"`                        // contact_requests.updated_at
}

// HasToken reports whether a rating token is currently attached.
func (c *ContactRequest) HasToken() bool {
	return c.RatingToken != nil && *c.RatingToken != ""
}

// ClientInfo carries the client-supplied fields of a new contact request.
type ClientInfo struct {
	Name            string  `json:"client_name" validate:"required,max=255"`
	Email           string  `json:"client_email" validate:"required,email,max=255"`
	Phone           *string `json:"client_phone,omitempty" validate:"omitempty,max=32"`
	TaskDescription string  `json:"task_description" validate:"required,max=5000"`
}
