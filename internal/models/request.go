package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Request is one instance of a user filling out a form template.
type Request struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FormTemplateID uuid.UUID      `gorm:"type:uuid;not null;index" json:"formTemplateId"`
	RequesterID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"requesterId"`
	Status         string         `gorm:"type:varchar(30);not null;default:'draft';index" json:"status"`
	FormData       datatypes.JSON `gorm:"type:jsonb;not null" json:"formData"`
	PDFPath        string         `gorm:"type:varchar(255)" json:"pdfPath,omitempty"`

	// SubmittedAt is non-nil exactly when the request has left draft.
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	FormTemplate *FormTemplate  `gorm:"foreignKey:FormTemplateID;constraint:OnDelete:CASCADE" json:"formTemplate,omitempty"`
	Requester    *User          `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	Steps        []ApprovalStep `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

// TableName returns the table name for Request
func (Request) TableName() string {
	return "requests"
}

// Request status constants
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusReturned = "returned"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// IsTerminal returns true if the status accepts no further decisions
func (r *Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// RequestAuditLog is one audit trail entry for a request.
type RequestAuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID uuid.UUID      `gorm:"type:uuid;not null;index" json:"requestId"`
	EventType string         `gorm:"type:varchar(50);not null;index" json:"eventType"`
	ActorID   *uuid.UUID     `gorm:"type:uuid" json:"actorId,omitempty"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for RequestAuditLog
func (RequestAuditLog) TableName() string {
	return "request_audit_log"
}

// AuditEventType constants
const (
	AuditEventCreated      = "created"
	AuditEventSubmitted    = "submitted"
	AuditEventEdited       = "edited"
	AuditEventResubmitted  = "resubmitted"
	AuditEventApproved     = "approved"
	AuditEventRejected     = "rejected"
	AuditEventReturned     = "returned"
	AuditEventRendered     = "rendered"
	AuditEventRenderFailed = "render_failed"
)
