// Package models contains domain entities and business models for the complaint platform
package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	UserRoleCitizen = "citizen"
	UserRoleAdmin   = "admin"
)

type User struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_users_uuid;not null;default:gen_random_uuid()" json:"uuid"`

	FirstName   string  `gorm:"size:100;not null" json:"first_name"`
	LastName    string  `gorm:"size:100;not null" json:"last_name"`
	Email       string  `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	PhoneNumber *string `gorm:"size:20" json:"phone_number,omitempty"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	Role string `gorm:"size:10;not null;default:'citizen';index:idx_users_role" json:"role"`

	IsVerified        *bool   `gorm:"default:false" json:"is_verified"`
	VerificationToken *string `gorm:"size:64;index:idx_users_verification_token" json:"-"`

	ResetPasswordToken   *string    `gorm:"size:64;index:idx_users_reset_password_token" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Complaints []Complaint `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs  []AuditLog  `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures UUID and timestamps are set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// FullName returns the display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID                 *uint
	UUID               *uuid.UUID
	Email              *string
	Role               *string
	IsVerified         *bool
	VerificationToken  *string
	ResetPasswordToken *string
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time
}
