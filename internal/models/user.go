package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity record provisioned on first successful SSO login.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OID       *string   `gorm:"type:varchar(100);uniqueIndex" json:"oid,omitempty"` // external identity id, optional
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	Email     string    `gorm:"type:varchar(180);not null;uniqueIndex" json:"email"` // stored lower-case
	Role      string    `gorm:"type:varchar(40);not null;default:'basicuser'" json:"role"`
	Status    string    `gorm:"type:varchar(40);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Signature *Signature `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"signature,omitempty"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleBasicUser = "basicuser"
	RoleAdmin     = "admin"
)

// Status constants
const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if the user may sign in and act
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
