package service

import (
	"fmt"
	"math"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// DefaultDailyCalories is used when neither age nor gender tables apply.
const DefaultDailyCalories = 2000

// Personalizer derives per-user calorie budgets and nutrient ceilings.
type Personalizer struct {
	tables *config.Tables
}

// NewPersonalizer creates a personalizer over the given tables.
func NewPersonalizer(tables *config.Tables) *Personalizer {
	return &Personalizer{tables: tables}
}

// CalculateBMI returns nil when weight or height is unknown or not positive.
// The value is rounded to one decimal before the band lookup.
func (p *Personalizer) CalculateBMI(weight, height *float64) *types.BMIInfo {
	if weight == nil || height == nil || *height <= 0 || *weight <= 0 {
		return nil
	}
	meters := *height / 100
	bmi := math.Round(*weight/(meters*meters)*10) / 10

	for _, c := range p.tables.BMICategories {
		if !c.Contains(bmi) {
			continue
		}
		limits := make(map[string]config.NutrientMultiplier, len(c.NutrientLimits))
		for k, v := range c.NutrientLimits {
			limits[k] = v
		}
		return &types.BMIInfo{
			Value:             bmi,
			Category:          c.Key,
			Label:             c.Label,
			CalorieAdjustment: c.CalorieAdjustment,
			Advice:            c.Advice,
			ScoreBonus:        c.ScoreBonus,
			NutrientLimits:    limits,
		}
	}
	return &types.BMIInfo{Value: bmi, Category: "normal", Label: "정상", CalorieAdjustment: 1.0}
}

// ComputeBudget builds the personalization result for one user.
//
// Calories come from the age group (keyed by normalized gender), else the
// gender base, else DefaultDailyCalories. Special conditions only add kcal,
// warnings and score; nutrient ceilings come from the BMI band alone.
func (p *Personalizer) ComputeBudget(weight, height *float64, ageRange, gender string, specialConditions []string) types.PersonalizationResult {
	res := types.PersonalizationResult{
		DailyCalories:  DefaultDailyCalories,
		NutrientLimits: map[string]config.NutrientMultiplier{},
		Adjustments:    []string{},
		Warnings:       []string{},
	}

	if bmi := p.CalculateBMI(weight, height); bmi != nil {
		res.BMI = bmi
		res.ScoreModifier += bmi.ScoreBonus
		if bmi.Advice != "" {
			res.Adjustments = append(res.Adjustments, fmt.Sprintf("[체중] %s", bmi.Advice))
		}
		for nutrient, limit := range bmi.NutrientLimits {
			res.NutrientLimits[types.CanonicalNutrient(nutrient)] = limit
		}
	}

	genderKey := p.tables.NormalizeGender(gender)
	if base, ok := p.tables.GenderAdjustments[genderKey]; ok && base.BaseCalories > 0 {
		res.DailyCalories = base.BaseCalories
	}
	if label, group, ok := p.tables.ResolveAgeGroup(ageRange); ok {
		if cal, ok := group.DailyCalories[genderKey]; ok && cal > 0 {
			res.DailyCalories = cal
		}
		for _, w := range group.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("[%s] %s", label, w))
		}
		for _, adj := range group.NutrientAdjustments {
			res.Adjustments = append(res.Adjustments, fmt.Sprintf("[%s] %s: %s", label, adj.Nutrient, adj.Reason))
		}
	}

	applied := make(map[string]struct{})
	for _, name := range types.NormalizeSet(specialConditions) {
		key, cond, ok := p.tables.LookupCondition(name)
		if !ok {
			continue
		}
		if _, dup := applied[key]; dup {
			continue
		}
		applied[key] = struct{}{}

		res.ScoreModifier += cond.ScoreImpact
		for _, f := range cond.Forbidden {
			res.Warnings = append(res.Warnings, fmt.Sprintf("[%s] %s 섭취 금지", key, f))
		}
		for _, w := range cond.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("[%s] %s", key, w))
		}
		for _, adj := range cond.NutrientAdjustments {
			if adj.Add == nil {
				res.Adjustments = append(res.Adjustments, fmt.Sprintf("[%s] %s: %s", key, adj.Nutrient, adj.Reason))
				continue
			}
			res.DailyCalories += *adj.Add
			res.Adjustments = append(res.Adjustments, fmt.Sprintf("[%s] 열량 %+dkcal: %s", key, *adj.Add, adj.Reason))
		}
	}

	return res
}

// Personalize is ComputeBudget over a profile.
func (p *Personalizer) Personalize(profile types.UserProfile) types.PersonalizationResult {
	return p.ComputeBudget(profile.Weight, profile.Height, profile.AgeRange, profile.Gender, profile.SpecialConditions)
}
