package model

import "time"

// Service is a listing published by a seller.  Only the fields touched by
// the contact and moderation flows are modelled here.
type Service struct {
	ID          uint64    // services.id
	SellerID    uint64    // services.seller_id
	Title       string    // services.title
	Description string    // services.description
	IsActive    bool      // services.is_active
	CreatedAt   time.Time // services.created_at
	UpdatedAt   time.Time // services.updated_at
}
