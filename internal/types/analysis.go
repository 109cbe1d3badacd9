package types

import (
	"github.com/jjikmuck/jjikmuck/backend/config"
)

// Suitability is the three-level verdict for a product.
type Suitability string

const (
	SuitabilitySafe    Suitability = "safe"
	SuitabilityWarning Suitability = "warning"
	SuitabilityDanger  Suitability = "danger"
)

// Valid reports whether s is one of the known verdicts.
func (s Suitability) Valid() bool {
	switch s {
	case SuitabilitySafe, SuitabilityWarning, SuitabilityDanger:
		return true
	}
	return false
}

// Severity grades a rule or matcher finding. It shares the suitability vocabulary.
type Severity string

const (
	SeveritySafe    Severity = "safe"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Finding kinds produced by the matcher.
const (
	FindingAllergy = "allergy"
	FindingDiet    = "diet"
)

// MatchWarning is one allergen or diet finding for a detected ingredient.
// Allergen holds the canonical allergen, or the diet category for diet findings.
type MatchWarning struct {
	Kind       string   `json:"kind"`
	Ingredient string   `json:"ingredient"`
	Allergen   string   `json:"allergen"`
	Term       string   `json:"term"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
}

// Alternative is a substitute product suggested by the synthesizer.
type Alternative struct {
	ProductName string `json:"productName"`
	Reason      string `json:"reason"`
}

// RAGAnalysis is the final verdict returned to callers.
type RAGAnalysis struct {
	Suitability       Suitability   `json:"suitability"`
	Score             int           `json:"score"`
	Recommendations   []string      `json:"recommendations"`
	Alternatives      []Alternative `json:"alternatives"`
	NutritionalAdvice string        `json:"nutritionalAdvice"`
}

// BMIInfo is the BMI-derived part of a personalization result.
type BMIInfo struct {
	Value             float64                              `json:"bmi"`
	Category          string                               `json:"category"`
	Label             string                               `json:"label"`
	CalorieAdjustment float64                              `json:"calorieAdjustment"`
	Advice            string                               `json:"advice,omitempty"`
	ScoreBonus        int                                  `json:"scoreBonus"`
	NutrientLimits    map[string]config.NutrientMultiplier `json:"nutrientLimits,omitempty"`
}

// PersonalizationResult is the per-user calorie budget and nutrient ceiling set.
type PersonalizationResult struct {
	DailyCalories  int                                  `json:"dailyCalories"`
	NutrientLimits map[string]config.NutrientMultiplier `json:"nutrientLimits"`
	Adjustments    []string                             `json:"adjustments"`
	Warnings       []string                             `json:"warnings"`
	ScoreModifier  int                                  `json:"scoreModifier"`
	BMI            *BMIInfo                             `json:"bmi,omitempty"`
}

// Multiplier returns the max multiplier for a nutrient, 1.0 when not overridden.
func (p *PersonalizationResult) Multiplier(nutrient string) float64 {
	if p == nil {
		return 1.0
	}
	key := CanonicalNutrient(nutrient)
	if m, ok := p.NutrientLimits[key]; ok {
		return m.MaxMultiplier
	}
	for k, m := range p.NutrientLimits {
		if CanonicalNutrient(k) == key {
			return m.MaxMultiplier
		}
	}
	return 1.0
}

// RuleDanger is a terminal allergy signal raised by a danger-severity rule.
type RuleDanger struct {
	Allergen string `json:"allergen"`
	Message  string `json:"message"`
}

// RuleApplicationResult aggregates what the rule engine found for one product.
type RuleApplicationResult struct {
	Warnings             []string     `json:"warnings"`
	Dangers              []RuleDanger `json:"dangers"`
	PersonalizedWarnings []string     `json:"personalizedWarnings"`
	TotalScoreImpact     int          `json:"totalScoreImpact"`
	BMIInfo              *BMIInfo     `json:"bmiInfo,omitempty"`
	DailyCalories        *int         `json:"dailyCalories,omitempty"`
}

// AnalysisSource tells whether a verdict came from the LLM or the fallback.
type AnalysisSource string

const (
	SourceLLM      AnalysisSource = "llm"
	SourceFallback AnalysisSource = "fallback"
)

// AnalysisReport is everything one analysis produced.
type AnalysisReport struct {
	Analysis        RAGAnalysis           `json:"analysis"`
	Source          AnalysisSource        `json:"source"`
	Findings        []MatchWarning        `json:"findings"`
	RuleResult      RuleApplicationResult `json:"ruleResult"`
	Personalization PersonalizationResult `json:"personalization"`
}
