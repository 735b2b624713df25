package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

type Attachment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ComplaintID uint       `gorm:"not null;index:idx_attachments_complaint_id" json:"complaint_id"`
	Complaint   *Complaint `gorm:"foreignKey:ComplaintID;references:ID" json:"-"`

	FileURL      string  `gorm:"size:500;not null" json:"file_url"`
	ThumbnailURL *string `gorm:"size:500" json:"thumbnail_url,omitempty"`
	FileName     string  `gorm:"size:255;not null" json:"file_name"`
	FileType     string  `gorm:"size:100;not null" json:"file_type"`
	FileSize     int64   `gorm:"not null" json:"file_size"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// BeforeCreate normalizes the timestamp
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// AttachmentFilter represents filter criteria for attachment queries
type AttachmentFilter struct {
	ID          *uint
	ComplaintID *uint
	FileType    *string
}
