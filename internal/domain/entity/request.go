package entity

import "time"

// Request is a unit of work moving through the approval workflow.
// Version implements optimistic concurrency: every stage mutation must
// carry the version it read, and the store rejects stale writes.
type Request struct {
	ID                string        `json:"id"`
	Kind              RequestKind   `json:"kind"`
	Status            RequestStatus `json:"status"`
	Priority          Priority      `json:"priority"`
	CurrentStage      string        `json:"current_stage"`
	Department        string        `json:"department"`
	Description       string        `json:"description"`
	RequestedByUserID string        `json:"requested_by_user_id"`
	RequestedByName   string        `json:"requested_by_name"`
	VehicleID         *string       `json:"vehicle_id,omitempty"`
	RequestDate       time.Time     `json:"request_date"`
	ApprovedDate      *time.Time    `json:"approved_date,omitempty"`
	CompletionDate    *time.Time    `json:"completion_date,omitempty"`
	RejectionReason   string        `json:"rejection_reason,omitempty"`
	RejectedBy        string        `json:"rejected_by,omitempty"`
	RejectedAt        *time.Time    `json:"rejected_at,omitempty"`
	Version           int64         `json:"version"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// IsTerminal returns true if the request accepts no further transitions
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}
