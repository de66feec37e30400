package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Domain types for approval levels ─────────────────────────────────────────

// ApprovalLevel is one amount band in a tenant's approval ladder.
type ApprovalLevel struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	// OrderLevel is a caller-supplied rank. Lower ranks win when active
	// bands overlap; duplicates are permitted, even within one tenant.
	OrderLevel      int             `json:"order_level"`
	AmountThreshold decimal.Decimal `json:"amount_threshold"`
	// MaxAmountThreshold is the inclusive upper bound; invalid = unbounded.
	MaxAmountThreshold decimal.NullDecimal `json:"max_amount_threshold"`
	Approvers          []string            `json:"approvers"`
	Active             bool                `json:"active"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// LevelPatch carries a partial update; nil fields are left unchanged.
// MaxAmountThreshold distinguishes "set a bound" (Valid) from "make
// unbounded" (not Valid); a nil pointer leaves the bound alone.
type LevelPatch struct {
	Name               *string
	OrderLevel         *int
	AmountThreshold    *decimal.Decimal
	MaxAmountThreshold *decimal.NullDecimal
	Approvers          *[]string
	Active             *bool
}

// Approver is a read-only projection of a tenant's user directory entry.
type Approver struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LevelAuditEntry is one immutable record in the level change audit log.
type LevelAuditEntry struct {
	ID          string                 `json:"id"`
	ClientID    string                 `json:"client_id"`
	LevelID     *string                `json:"level_id,omitempty"`
	Action      string                 `json:"action"` // created | updated | deleted | copied_defaults
	PerformedBy string                 `json:"performed_by"`
	PerformedAt time.Time              `json:"performed_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
