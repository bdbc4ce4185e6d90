package entity

import "time"

// Action is a single per-stage history entry. Actions are immutable once
// recorded; the workflow status projection is rebuilt from them on every read.
type Action struct {
	ID              int64     `json:"id"`
	RequestID       string    `json:"request_id"`
	Stage           string    `json:"stage"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	Comments        string    `json:"comments"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	AutoSkipped     bool      `json:"auto_skipped"`
	Timestamp       time.Time `json:"timestamp"`
}

// WorkflowStatus is the derived read-model consumed by clients. It is never
// persisted; see the projector.
type WorkflowStatus struct {
	RequestID        string               `json:"request_id"`
	CurrentStage     string               `json:"current_stage"`
	Status           RequestStatus        `json:"status"`
	CompletedActions map[string][]*Action `json:"completed_actions"`
	PendingActions   []PendingAction      `json:"pending_actions"`
}

// PendingAction marks whether a current-stage owner has acted yet
type PendingAction struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
	IsPending bool   `json:"is_pending"`
}
