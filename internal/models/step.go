package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStep is one approver's link in the chain for a request. Steps are
// totally ordered by Sequence within a request; an approver may act only when
// every prior-sequence step is approved.
type ApprovalStep struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID          uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_step_request_seq" json:"requestId"`
	Sequence           int        `gorm:"not null;uniqueIndex:idx_step_request_seq" json:"sequence"`
	ApproverID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"approverId"`
	Status             string     `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	Comment            string     `gorm:"type:text" json:"comment,omitempty"`
	SignedDocumentPath string     `gorm:"type:varchar(255)" json:"signedDocumentPath,omitempty"`
	ActedAt            *time.Time `json:"actedAt,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"createdAt"`

	Approver *User    `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Request  *Request `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName returns the table name for ApprovalStep
func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// ApprovalStep status constants
const (
	StepStatusPending  = "pending"
	StepStatusApproved = "approved"
	StepStatusRejected = "rejected"
	StepStatusReturned = "returned"
)

// Decision constants accepted on the decide endpoint
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
	DecisionReturned = "returned"
)
