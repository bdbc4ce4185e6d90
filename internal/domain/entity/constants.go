package entity

// RequestKind identifies the type of fleet request
type RequestKind string

const (
	KindVehicleAssignment RequestKind = "VehicleAssignment"
	KindMaintenance       RequestKind = "Maintenance"
)

// IsValid returns true if the kind is a known request kind
func (k RequestKind) IsValid() bool {
	return k == KindVehicleAssignment || k == KindMaintenance
}

// String returns the string representation of the kind
func (k RequestKind) String() string {
	return string(k)
}

// RequestStatus is the numeric request status shared with API clients
type RequestStatus int

const (
	StatusPending   RequestStatus = 0
	StatusApproved  RequestStatus = 1
	StatusRejected  RequestStatus = 2
	StatusCompleted RequestStatus = 3
)

var statusNames = map[RequestStatus]string{
	StatusPending:   "Pending",
	StatusApproved:  "Approved",
	StatusRejected:  "Rejected",
	StatusCompleted: "Completed",
}

// IsTerminal returns true if no further workflow transitions are allowed
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// String returns the display name of the status
func (s RequestStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Priority classifies request urgency
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var validPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// IsValid returns true if the priority is a known priority level
func (p Priority) IsValid() bool {
	return validPriorities[p]
}

// String returns the string representation of the priority
func (p Priority) String() string {
	return string(p)
}

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)
