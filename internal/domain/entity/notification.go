package entity

import "time"

// StageNotification is a persisted record of a pending-action notice sent to
// one owner of a request's current stage. Delivery is a downstream effect of a
// transition, never a gate on it.
type StageNotification struct {
	ID           int64      `json:"id"`
	RequestID    string     `json:"request_id"`
	Stage        string     `json:"stage"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
