package models

import (
	"time"

	"github.com/google/uuid"
)

// Signature is the single active signature image for a user.
// Re-uploads overwrite the existing row rather than inserting a new one.
type Signature struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	ImagePath  string    `gorm:"type:varchar(255);not null" json:"imagePath"` // relative to the upload root
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

// TableName returns the table name for Signature
func (Signature) TableName() string {
	return "signatures"
}
