package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

type Comment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ComplaintID uint       `gorm:"not null;index:idx_comments_complaint_id" json:"complaint_id"`
	Complaint   *Complaint `gorm:"foreignKey:ComplaintID;references:ID" json:"-"`

	UserID uint  `gorm:"not null;index:idx_comments_user_id" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Internal comments are admin-only notes, never shown to the submitter
	IsInternal *bool `gorm:"default:false" json:"is_internal"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_comments_created_at" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate normalizes the timestamp
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CommentFilter represents filter criteria for comment queries
type CommentFilter struct {
	ID          *uint
	ComplaintID *uint
	UserID      *uint
	IsInternal  *bool
}
