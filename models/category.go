package models

import (
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null;uniqueIndex:uk_categories_name" json:"name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	IsActive    *bool   `gorm:"default:true;index:idx_categories_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeCreate normalizes timestamps
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// CategoryFilter represents filter criteria for category queries
type CategoryFilter struct {
	ID       *uint
	Name     *string
	IsActive *bool
}
