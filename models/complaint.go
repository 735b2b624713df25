// Package models contains domain entities and business models for the complaint platform
package models

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint statuses
const (
	ComplaintStatusPending     = "pending"
	ComplaintStatusUnderReview = "under_review"
	ComplaintStatusInProgress  = "in_progress"
	ComplaintStatusResolved    = "resolved"
	ComplaintStatusRejected    = "rejected"
	ComplaintStatusClosed      = "closed"
)

// Complaint priorities
const (
	ComplaintPriorityLow    = "low"
	ComplaintPriorityMedium = "medium"
	ComplaintPriorityHigh   = "high"
	ComplaintPriorityUrgent = "urgent"
)

type Complaint struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_complaints_uuid;not null;default:gen_random_uuid()" json:"uuid"`
	TrackingID string    `gorm:"size:14;not null;uniqueIndex:uk_complaints_tracking_id" json:"tracking_id"`

	Title       *string `gorm:"size:255" json:"title,omitempty"`
	Description string  `gorm:"type:text;not null" json:"description"`
	Location    string  `gorm:"size:255;not null" json:"location"`

	CategoryID    uint         `gorm:"not null;index:idx_complaints_category_id" json:"category_id"`
	Category      *Category    `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	SubcategoryID uint         `gorm:"not null;index:idx_complaints_subcategory_id" json:"subcategory_id"`
	Subcategory   *Subcategory `gorm:"foreignKey:SubcategoryID;references:ID" json:"subcategory,omitempty"`

	Status   string `gorm:"size:20;not null;default:'pending';index:idx_complaints_status" json:"status"`
	Priority string `gorm:"size:10;not null;default:'medium';index:idx_complaints_priority" json:"priority"`

	// Submitter: either UserID (authenticated) or the contact triple
	// (anonymous or unauthenticated). Never both.
	UserID      *uint   `gorm:"index:idx_complaints_user_id" json:"user_id,omitempty"`
	User        *User   `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	FullName    *string `gorm:"size:255" json:"full_name,omitempty"`
	PhoneNumber *string `gorm:"size:20" json:"phone_number,omitempty"`
	Email       *string `gorm:"size:255" json:"email,omitempty"`

	// Anonymous complaints never receive notifications even when contact
	// details are on file
	IsAnonymous *bool `gorm:"default:false" json:"is_anonymous"`

	AssignedTo   *uint `gorm:"index:idx_complaints_assigned_to" json:"assigned_to,omitempty"`
	AssignedUser *User `gorm:"foreignKey:AssignedTo;references:ID" json:"assigned_user,omitempty"`

	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_complaints_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	StatusHistory []StatusHistory `gorm:"foreignKey:ComplaintID" json:"status_history,omitempty"`
	Attachments   []Attachment    `gorm:"foreignKey:ComplaintID" json:"attachments,omitempty"`
	Comments      []Comment       `gorm:"foreignKey:ComplaintID" json:"comments,omitempty"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate ensures UUID and timestamps are set
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// HasContact reports whether the submitter left any reachable contact channel
func (c *Complaint) HasContact() bool {
	return (c.Email != nil && *c.Email != "") || (c.PhoneNumber != nil && *c.PhoneNumber != "")
}

// DisplayTitle falls back to the category name when no title was provided
func (c *Complaint) DisplayTitle(categoryName string) string {
	if c.Title != nil && *c.Title != "" {
		return *c.Title
	}
	return categoryName + " Issue"
}

// IsValidComplaintStatus reports whether s is a recognized complaint status
func IsValidComplaintStatus(s string) bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusUnderReview, ComplaintStatusInProgress,
		ComplaintStatusResolved, ComplaintStatusRejected, ComplaintStatusClosed:
		return true
	}
	return false
}

// IsValidComplaintPriority reports whether p is a recognized complaint priority
func IsValidComplaintPriority(p string) bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh, ComplaintPriorityUrgent:
		return true
	}
	return false
}

// StatusRank returns the position of s in the canonical progression
// pending < under_review < in_progress < resolved < closed.
// rejected has no rank (-1); it suppresses the public timeline.
func StatusRank(s string) int {
	switch s {
	case ComplaintStatusPending:
		return 0
	case ComplaintStatusUnderReview:
		return 1
	case ComplaintStatusInProgress:
		return 2
	case ComplaintStatusResolved:
		return 3
	case ComplaintStatusClosed:
		return 4
	}
	return -1
}

// GenerateTrackingID produces a candidate id of the form IJW-<year>-<5 digits>.
// Uniqueness is enforced by the caller against uk_complaints_tracking_id.
func GenerateTrackingID(now time.Time) string {
	n := 10000 + rand.IntN(90000)
	return fmt.Sprintf("IJW-%d-%05d", now.UTC().Year(), n)
}

// ComplaintFilter represents filter criteria for complaint queries
type ComplaintFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	TrackingID    *string
	Status        *string
	Priority      *string
	CategoryID    *uint
	SubcategoryID *uint
	UserID        *uint
	AssignedTo    *uint
	Unassigned    *bool
	Search        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
