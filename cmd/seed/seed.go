package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedFile is the layout of a seed file.
type SeedFile struct {
	Rules     []SeedRule     `yaml:"rules"`
	Knowledge []SeedDocument `yaml:"knowledge"`
}

type SeedRule struct {
	RuleType       string                    `yaml:"rule_type"`
	ConditionKey   string                    `yaml:"condition_key"`
	WarningMessage string                    `yaml:"warning_message"`
	Severity       string                    `yaml:"severity"`
	ScoreImpact    *int                      `yaml:"score_impact"`
	Description    string                    `yaml:"description"`
	NutrientLimits map[string]SeedLimitValue `yaml:"nutrient_limits"`
}

type SeedLimitValue struct {
	Max *float64 `yaml:"max"`
}

type SeedDocument struct {
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Content  string   `yaml:"content"`
	Keywords []string `yaml:"keywords"`
}

// SeedResult counts what was inserted.
type SeedResult struct {
	Rules     int
	Knowledge int
	Failed    int
}

// LoadSeedFile reads path, or the built-in seed data when path is empty.
func LoadSeedFile(path string) (*SeedFile, error) {
	data := defaultSeed
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

func (r SeedRule) request() types.CreateRuleRequest {
	req := types.CreateRuleRequest{
		RuleType:       r.RuleType,
		ConditionKey:   r.ConditionKey,
		WarningMessage: r.WarningMessage,
		Severity:       r.Severity,
		ScoreImpact:    r.ScoreImpact,
		Description:    r.Description,
		NutrientLimits: map[string]types.LimitMax{},
	}
	for nutrient, limit := range r.NutrientLimits {
		req.NutrientLimits[nutrient] = types.LimitMax{Max: limit.Max}
	}
	return req
}

// ResetTables deletes every rule and knowledge document.
func ResetTables(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := tx.Delete(&models.KnowledgeDocument{}).Error; err != nil {
		return fmt.Errorf("failed to clear knowledge documents: %w", err)
	}
	if err := tx.Delete(&models.AnalysisRule{}).Error; err != nil {
		return fmt.Errorf("failed to clear analysis rules: %w", err)
	}
	return nil
}

// Apply inserts every entry. A failed entry is logged and skipped.
func Apply(ctx context.Context, seed *SeedFile, rules service.IRuleService, knowledge service.IKnowledgeService, log *logger.Logger) SeedResult {
	var res SeedResult
	for _, r := range seed.Rules {
		if _, err := rules.AddRule(ctx, service.RuleFromRequest(r.request())); err != nil {
			log.Error("failed to add rule", "condition_key", r.ConditionKey, "error", err)
			res.Failed++
			continue
		}
		log.Info("added rule", "rule_type", r.RuleType, "condition_key", r.ConditionKey)
		res.Rules++
	}
	for _, d := range seed.Knowledge {
		_, err := knowledge.AddKnowledge(ctx, &models.KnowledgeDocument{
			Title:    d.Title,
			Content:  d.Content,
			Category: d.Category,
			Keywords: models.JSONBStringArray(d.Keywords),
		})
		if err != nil {
			log.Error("failed to add knowledge", "title", d.Title, "error", err)
			res.Failed++
			continue
		}
		log.Info("added knowledge", "title", d.Title, "category", d.Category)
		res.Knowledge++
	}
	return res
}
