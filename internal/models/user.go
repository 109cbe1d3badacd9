package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account together with its stored health profile.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`

	Height            *float64         `json:"height,omitempty"`
	Weight            *float64         `json:"weight,omitempty"`
	AgeRange          string           `gorm:"size:20" json:"age_range,omitempty"`
	Gender            string           `gorm:"size:20" json:"gender,omitempty"`
	DietType          string           `gorm:"size:50" json:"diet_type,omitempty"`
	Allergies         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	Diseases          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"diseases"`
	SpecialConditions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"special_conditions"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id and lowercases the email.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// Allergy is one entry of the allergy catalog users pick from.
type Allergy struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	Name        string           `gorm:"size:50;not null;uniqueIndex" json:"name"`
	DisplayName string           `gorm:"size:100" json:"display_name"`
	Aliases     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"aliases"`
}

// TableName returns the table name for the Allergy model
func (Allergy) TableName() string {
	return "allergies"
}
