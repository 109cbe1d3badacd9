package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanHistory is one stored analysis of a product for a user.
type ScanHistory struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time        `gorm:"index" json:"created_at"`
	UserID            string           `gorm:"size:100;not null;index" json:"user_id"`
	ProductName       string           `gorm:"size:255" json:"product_name"`
	Suitability       string           `gorm:"size:20;not null" json:"suitability"`
	Score             int              `gorm:"not null" json:"score"`
	Source            string           `gorm:"size:20" json:"source"`
	DetectedAllergens JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"detected_allergens"`
	DietWarnings      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"diet_warnings"`
	Recommendations   JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"recommendations"`
	Nutrients         JSONBFloatMap    `gorm:"type:jsonb;not null;default:'{}'" json:"nutrients"`
}

// TableName returns the table name for the ScanHistory model
func (ScanHistory) TableName() string {
	return "scan_histories"
}

func (s *ScanHistory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
