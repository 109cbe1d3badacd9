package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Knowledge categories used by the context builder.
const (
	KnowledgeAllergies = "allergies"
	KnowledgeDiseases  = "diseases"
	KnowledgeNutrition = "nutrition"
)

// KnowledgeDocument is a retrievable snippet of dietary knowledge.
type KnowledgeDocument struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Title     string           `gorm:"size:255" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Category  string           `gorm:"size:50;not null;index" json:"category"`
	Keywords  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"keywords"`
	Embedding *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
}

// TableName returns the table name for the KnowledgeDocument model
func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}

func (d *KnowledgeDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
