package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"gorm.io/gorm"
)

var (
	// ErrRuleNotFound is returned when a rule id does not exist.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrInvalidRule is returned for rules with an unknown type or missing key.
	ErrInvalidRule = errors.New("invalid rule")
)

// RuleRepository stores analysis rules in the database.
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new RuleRepository instance
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// GetMatchingRules returns rules whose condition key equals any allergy or disease.
func (r *RuleRepository) GetMatchingRules(ctx context.Context, allergies, diseases []string) ([]models.AnalysisRule, error) {
	keys := conditionKeys(allergies, diseases)
	if len(keys) == 0 {
		return []models.AnalysisRule{}, nil
	}

	var rules []models.AnalysisRule
	err := r.db.WithContext(ctx).
		Where("LOWER(condition_key) IN ?", keys).
		Order("rule_type ASC, condition_key ASC, created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get matching rules: %w", err)
	}
	return rules, nil
}

// AddRule validates a rule, applies the defaults and stores it.
func (r *RuleRepository) AddRule(ctx context.Context, rule *models.AnalysisRule) (*models.AnalysisRule, error) {
	rule.RuleType = strings.ToLower(strings.TrimSpace(rule.RuleType))
	rule.ConditionKey = strings.ToLower(strings.TrimSpace(rule.ConditionKey))
	switch rule.RuleType {
	case models.RuleTypeAllergy, models.RuleTypeDisease, models.RuleTypeNutrition:
	default:
		return nil, fmt.Errorf("%w: unknown rule type %q", ErrInvalidRule, rule.RuleType)
	}
	if rule.ConditionKey == "" {
		return nil, fmt.Errorf("%w: condition key is required", ErrInvalidRule)
	}
	if rule.NutrientLimits == nil {
		rule.NutrientLimits = models.NutrientLimits{}
	}

	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return rule, nil
}

// ListRules lists rules, optionally filtered by type.
func (r *RuleRepository) ListRules(ctx context.Context, ruleType string) ([]models.AnalysisRule, error) {
	var rules []models.AnalysisRule
	q := r.db.WithContext(ctx).Order("rule_type ASC, condition_key ASC")
	if ruleType != "" {
		q = q.Where("rule_type = ?", strings.ToLower(ruleType))
	}
	if err := q.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// DeleteRule removes a rule by id.
func (r *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrRuleNotFound
	}
	res := r.db.WithContext(ctx).Delete(&models.AnalysisRule{}, "id = ?", uid)
	if res.Error != nil {
		return fmt.Errorf("failed to delete rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// conditionKeys is the lowercased, de-duplicated, sorted union of both lists.
func conditionKeys(allergies, diseases []string) []string {
	keys := types.NormalizeSet(append(append([]string{}, allergies...), diseases...))
	sort.Strings(keys)
	return keys
}

// RuleFromRequest converts an API or seed request into a rule. A missing
// score impact becomes models.DefaultScoreImpact.
func RuleFromRequest(req types.CreateRuleRequest) *models.AnalysisRule {
	rule := &models.AnalysisRule{
		RuleType:       req.RuleType,
		ConditionKey:   req.ConditionKey,
		NutrientLimits: models.NutrientLimits{},
		WarningMessage: req.WarningMessage,
		Severity:       strings.ToLower(strings.TrimSpace(req.Severity)),
		ScoreImpact:    models.DefaultScoreImpact,
		Description:    req.Description,
	}
	if req.ScoreImpact != nil {
		rule.ScoreImpact = *req.ScoreImpact
	}
	for nutrient, limit := range req.NutrientLimits {
		rule.NutrientLimits[types.CanonicalNutrient(nutrient)] = models.NutrientLimit{Max: limit.Max}
	}
	return rule
}
