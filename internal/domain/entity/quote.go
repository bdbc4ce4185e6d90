package entity

import "time"

// Quote is a mechanic-submitted cost estimate attached to a maintenance
// request during the commit stage. TotalCost must equal LaborCost + PartsCost;
// the engine rejects mismatches rather than recomputing silently.
type Quote struct {
	ID            int64     `json:"id"`
	RequestID     string    `json:"request_id"`
	LaborCost     float64   `json:"labor_cost"`
	PartsCost     float64   `json:"parts_cost"`
	TotalCost     float64   `json:"total_cost"`
	EstimatedTime string    `json:"estimated_time"`
	Notes         string    `json:"notes"`
	SubmittedBy   string    `json:"submitted_by"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// CostsConsistent reports whether the quoted total matches its parts
func (q *Quote) CostsConsistent() bool {
	return q.TotalCost == q.LaborCost+q.PartsCost
}
