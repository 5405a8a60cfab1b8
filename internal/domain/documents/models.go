package documents

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrUnknownType    = errors.New("unknown document type")
	ErrInvalidState   = errors.New("document is not pending review")
	ErrReasonRequired = errors.New("rejection reason is required")
)

// Document is one uploaded file for one (employee, type) pair. The pair is
// unique; re-uploading overwrites the blob and resets the row to pending.
type Document struct {
	ID           string     `json:"id"`
	EmpID        string     `json:"empId"`
	Type         string     `json:"type"`
	StorageKey   string     `json:"-"`
	FileURL      string     `json:"fileUrl"`
	Status       string     `json:"status"`
	RejectReason string     `json:"rejectReason,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
}

// RegistryEntry is the join of the catalog against uploaded rows: one entry
// per catalog type, whether or not anything was uploaded.
type RegistryEntry struct {
	Type     string    `json:"type"`
	Uploaded bool      `json:"uploaded"`
	Document *Document `json:"document,omitempty"`
}
