package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Notification intents
const (
	NotificationIntentSubmitted    = "submitted"
	NotificationIntentStatusUpdate = "status_update"
	NotificationIntentResolved     = "resolved"
	NotificationIntentRejected     = "rejected"
	NotificationIntentNewComment   = "new_comment"
)

// NotificationIntentForStatus maps a complaint status entered by a
// transition to the notification intent sent to the submitter.
func NotificationIntentForStatus(status string) string {
	switch status {
	case ComplaintStatusResolved:
		return NotificationIntentResolved
	case ComplaintStatusRejected:
		return NotificationIntentRejected
	default:
		return NotificationIntentStatusUpdate
	}
}

// NotificationLog records one dispatch attempt per notified event.
// Writes are best-effort; delivery is fire-and-forget.
type NotificationLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ComplaintID uint       `gorm:"not null;index:idx_notification_log_complaint_id" json:"complaint_id"`
	Complaint   *Complaint `gorm:"foreignKey:ComplaintID;references:ID" json:"-"`

	Intent string `gorm:"size:20;not null;index:idx_notification_log_intent" json:"intent"`

	RecipientEmail *string `gorm:"size:255" json:"recipient_email,omitempty"`
	RecipientPhone *string `gorm:"size:20" json:"recipient_phone,omitempty"`

	// Channels that accepted the message, subset of {email, sms}
	Channels pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"channels"`

	Success      *bool   `gorm:"default:false" json:"success"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_notification_log_created_at" json:"created_at"`
}

func (NotificationLog) TableName() string {
	return "notification_log"
}

// BeforeCreate normalizes the timestamp
func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = utils.UTCNow()
	}
	return nil
}

// NotificationLogFilter represents filter criteria for dispatch-record queries
type NotificationLogFilter struct {
	ID          *uint
	ComplaintID *uint
	Intent      *string
	Success     *bool
}
