package model

import "time"

// Roles stored in users.role.
const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
)

// User mirrors the subset of the `users` table the core reads and writes.
type User struct {
	ID                 uint64     // users.id
	Email              string     // users.email
	Role               string     // users.role
	IsActive           bool       // users.is_active
	IsSuspended        bool       // users.is_suspended
	AverageRating      float64    // users.average_rating
	TotalCompletedJobs int        // users.total_completed_jobs
	LastJobDate        *time.Time // users.last_job_date (nullable)
	CreatedAt          time.Time  // users.created_at
	UpdatedAt          time.Time  // users.updated_at
}

// Session is an authenticated login owned by the auth layer.  The core
// only ever deletes sessions, during seller erasure.
type Session struct {
	ID        uint64     // sessions.id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}
