package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

type Subcategory struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null;uniqueIndex:uk_subcategories_category_name" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	CategoryID uint      `gorm:"not null;uniqueIndex:uk_subcategories_category_name;index:idx_subcategories_category_id" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`

	IsActive *bool `gorm:"default:true;index:idx_subcategories_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}

// BeforeCreate normalizes timestamps
func (s *Subcategory) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// SubcategoryFilter represents filter criteria for subcategory queries
type SubcategoryFilter struct {
	ID         *uint
	Name       *string
	CategoryID *uint
	IsActive   *bool
}
