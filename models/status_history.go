package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// StatusHistory is the append-only transition ledger for a complaint.
// One row is written at submission (nil -> pending) and one per applied
// transition after that. The "Submitted" head entry shown to citizens is
// synthesized at read time from the complaint's creation timestamp.
type StatusHistory struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ComplaintID uint       `gorm:"not null;index:idx_status_history_complaint_id" json:"complaint_id"`
	Complaint   *Complaint `gorm:"foreignKey:ComplaintID;references:ID" json:"-"`

	PreviousStatus *string `gorm:"size:20" json:"previous_status,omitempty"`
	NewStatus      string  `gorm:"size:20;not null" json:"new_status"`
	Comment        *string `gorm:"type:text" json:"comment,omitempty"`

	ChangedBy     *uint `gorm:"index:idx_status_history_changed_by" json:"changed_by,omitempty"`
	ChangedByUser *User `gorm:"foreignKey:ChangedBy;references:ID" json:"changed_by_user,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_status_history_created_at" json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "status_history"
}

// BeforeCreate normalizes the timestamp
func (h *StatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Description renders the human-readable line for the tracking view
func (h *StatusHistory) Description() string {
	if h.Comment != nil && *h.Comment != "" {
		return *h.Comment
	}
	prev := ""
	if h.PreviousStatus != nil {
		prev = *h.PreviousStatus
	}
	return "Status changed from " + prev + " to " + h.NewStatus
}

// StatusHistoryFilter represents filter criteria for ledger queries
type StatusHistoryFilter struct {
	ID            *uint
	ComplaintID   *uint
	NewStatus     *string
	ChangedBy     *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
