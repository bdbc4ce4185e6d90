package entity

import "time"

// Document is an opaque file attached to a maintenance request
type Document struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"-"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Vehicle is the fleet record a request may reference. The workflow only
// reads vehicles; administration of the fleet itself lives elsewhere.
type Vehicle struct {
	ID          string    `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Year        int       `json:"year"`
	Department  string    `json:"department"`
	Status      string    `json:"status"`
	OdometerKM  int64     `json:"odometer_km"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
