package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Rule types.
const (
	RuleTypeAllergy   = "allergy"
	RuleTypeDisease   = "disease"
	RuleTypeNutrition = "nutrition"
)

// DefaultScoreImpact is applied to rules created without an explicit impact.
const DefaultScoreImpact = -10

// AnalysisRule is a stored condition to effect record, looked up by ConditionKey.
type AnalysisRule struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	RuleType       string           `gorm:"size:50;not null;index" json:"rule_type"`
	ConditionKey   string           `gorm:"size:100;not null;index" json:"condition_key"`
	NutrientLimits NutrientLimits   `gorm:"type:jsonb;not null;default:'{}'" json:"nutrient_limits"`
	WarningMessage string           `gorm:"type:text" json:"warning_message"`
	Severity       string           `gorm:"size:20;not null;default:'warning'" json:"severity"`
	ScoreImpact    int              `gorm:"not null" json:"score_impact"`
	Description    string           `gorm:"type:text" json:"description"`
	Embedding      *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
}

// TableName returns the table name for the AnalysisRule model
func (AnalysisRule) TableName() string {
	return "analysis_rules"
}

// BeforeCreate assigns an id and lowercases the condition key.
func (r *AnalysisRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.ConditionKey = strings.ToLower(strings.TrimSpace(r.ConditionKey))
	if r.Severity == "" {
		r.Severity = "warning"
	}
	return nil
}

// All lists the models managed by migrations.
func All() []interface{} {
	return []interface{}{
		&AnalysisRule{},
		&KnowledgeDocument{},
		&ScanHistory{},
		&User{},
		&Allergy{},
	}
}
