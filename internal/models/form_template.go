package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormTemplate is a static catalog entry describing the fields a submission
// must contain. Templates are seeded at startup and immutable at runtime.
type FormTemplate struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	FormCode          string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"formCode"`
	LatexTemplatePath string         `gorm:"type:varchar(255)" json:"latexTemplatePath,omitempty"`
	Fields            datatypes.JSON `gorm:"type:jsonb;not null" json:"fields"` // ordered array of field descriptors
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	Routes []ApprovalRoute `gorm:"foreignKey:FormTemplateID;constraint:OnDelete:CASCADE" json:"routes,omitempty"`
}

// TableName returns the table name for FormTemplate
func (FormTemplate) TableName() string {
	return "form_templates"
}

// ApprovalRoute is one position in the ordered approver list configured for a
// form template. Routes are copied into ApprovalSteps when a request leaves
// draft.
type ApprovalRoute struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FormTemplateID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_route_template_seq" json:"formTemplateId"`
	Sequence       int       `gorm:"not null;uniqueIndex:idx_route_template_seq" json:"sequence"`
	ApproverID     uuid.UUID `gorm:"type:uuid;not null;index" json:"approverId"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// TableName returns the table name for ApprovalRoute
func (ApprovalRoute) TableName() string {
	return "approval_routes"
}
