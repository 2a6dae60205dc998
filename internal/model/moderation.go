package model

import "time"

// ModerationActionType is the closed set of administrative actions.
type ModerationActionType string

const (
	ActionApproveService  ModerationActionType = "approve-service"
	ActionDeleteService   ModerationActionType = "delete-service"
	ActionSuspendSeller   ModerationActionType = "suspend-seller"
	ActionReinstateSeller ModerationActionType = "reinstate-seller"
	ActionDeleteSeller    ModerationActionType = "delete-seller"
)

// ModerationAction is the immutable audit record of an admin decision.
// ServiceID and SellerID are plain identifiers so the record outlives the
// entities it refers to.
type ModerationAction struct {
	ID            uint64               `json:"id"`                       // moderation_actions.id
	AdminID       uint64               `json:"admin_id"`                 // moderation_actions.admin_id
	ServiceID     *uint64              `json:"service_id,omitempty"`     // moderation_actions.service_id (nullable)
	SellerID      *uint64              `json:"seller_id,omitempty"`      // moderation_actions.seller_id (nullable)
	Action        ModerationActionType `json:"action"`                   // moderation_actions.action
	Justification string               `json:"justification"`            // moderation_actions.justification
	InternalNotes *string              `json:"internal_notes,omitempty"` // moderation_actions.internal_notes (nullable)
	CreatedAt     time.Time            `json:"created_at"`               // moderation_actions.created_at
}

// ContentReport is a user complaint about a service listing.
type ContentReport struct {
	ID            uint64     `json:"id"`                    // content_reports.id
	ServiceID     uint64     `json:"service_id"`            // content_reports.service_id
	ReporterEmail string     `json:"reporter_email"`        // content_reports.reporter_email
	Reason        string     `json:"reason"`                // content_reports.reason
	Status        string     `json:"status"`                // content_reports.status (OPEN, RESOLVED)
	CreatedAt     time.Time  `json:"created_at"`            // content_reports.created_at
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"` // content_reports.resolved_at (nullable)
}

const (
	ReportOpen     = "OPEN"
	ReportResolved = "RESOLVED"
)
