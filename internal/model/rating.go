package model

import "time"

// Rating is a client's one-time review of a completed contact request.
// Ratings are immutable once written.
type Rating struct {
	ID               uint64    `json:"id"`                    // ratings.id
	ContactRequestID uint64    `json:"contact_request_id"`    // ratings.contact_request_id (unique)
	ServiceID        uint64    `json:"service_id"`            // ratings.service_id
	SellerID         uint64    `json:"seller_id"`             // ratings.seller_id
	Score            int       `json:"score"`                 // ratings.score (1..5)
	ReviewText       *string   `json:"review_text,omitempty"` // ratings.review_text (nullable)
	IsVerified       bool      `json:"is_verified"`           // ratings.is_verified
	CreatedAt        time.Time `json:"created_at"`            // ratings.created_at
}

// SellerStats holds the aggregate rating fields stored on a seller row.
type SellerStats struct {
	SellerID           uint64     `json:"seller_id"`
	AverageRating      float64    `json:"average_rating"`
	TotalCompletedJobs int        `json:"total_completed_jobs"`
	LastJobDate        *time.Time `json:"last_job_date,omitempty"`
}
