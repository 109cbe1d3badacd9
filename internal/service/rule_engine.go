package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// ApplyRules evaluates pre-filtered rules against a product.
//
// Allergy rules fire at most once each, when their condition key and any product
// allergen contain one another. Disease and nutrition rules fire once per
// nutrient whose measured value exceeds the personalized maximum. Unmeasured
// nutrients never fire. personalization may be nil.
func ApplyRules(rules []models.AnalysisRule, productAllergens []string, info *types.NutritionalInfo, personalization *types.PersonalizationResult) types.RuleApplicationResult {
	res := types.RuleApplicationResult{
		Warnings:             []string{},
		Dangers:              []types.RuleDanger{},
		PersonalizedWarnings: []string{},
	}

	if personalization != nil {
		bmi := personalization.BMI
		cal := personalization.DailyCalories
		res.BMIInfo = bmi
		res.DailyCalories = &cal
		res.PersonalizedWarnings = append(res.PersonalizedWarnings, personalization.Warnings...)
		res.TotalScoreImpact += personalization.ScoreModifier
	}

	allergens := make([]string, 0, len(productAllergens))
	for _, a := range productAllergens {
		if n := strings.ToLower(strings.TrimSpace(a)); n != "" {
			allergens = append(allergens, n)
		}
	}

	for _, rule := range rules {
		key := strings.ToLower(strings.TrimSpace(rule.ConditionKey))

		switch rule.RuleType {
		case models.RuleTypeAllergy:
			if !anyContainsEither(allergens, key) {
				continue
			}
			if types.Severity(rule.Severity) == types.SeverityDanger {
				res.Dangers = append(res.Dangers, types.RuleDanger{Allergen: key, Message: rule.WarningMessage})
			} else {
				res.Warnings = append(res.Warnings, rule.WarningMessage)
			}
			res.TotalScoreImpact += rule.ScoreImpact

		case models.RuleTypeDisease, models.RuleTypeNutrition:
			for _, nutrient := range rule.NutrientLimits.Keys() {
				limit := rule.NutrientLimits[nutrient]
				if limit.Max == nil {
					continue
				}
				value, ok := info.Value(nutrient)
				if !ok {
					continue
				}
				effective := EffectiveMax(*limit.Max, personalization.Multiplier(nutrient))
				if value > effective {
					res.Warnings = append(res.Warnings, fmt.Sprintf("%s (현재: %s, 개인 권장 최대: %.0f)", rule.WarningMessage, formatAmount(value), effective))
					res.TotalScoreImpact += rule.ScoreImpact
				}
			}
		}
	}

	return res
}

// EffectiveMax scales a static maximum by a personalization multiplier, never below zero.
func EffectiveMax(limit, multiplier float64) float64 {
	return math.Max(0, limit*multiplier)
}

func anyContainsEither(values []string, key string) bool {
	for _, v := range values {
		if containsEither(v, key) {
			return true
		}
	}
	return false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
