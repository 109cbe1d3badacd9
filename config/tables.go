package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// NutrientMultiplier scales a rule's static nutrient maximum.
type NutrientMultiplier struct {
	MaxMultiplier float64 `yaml:"max_multiplier" json:"max_multiplier"`
}

// BMICategory is one [Min, Max) band of the BMI table.
type BMICategory struct {
	Key               string                        `yaml:"key"`
	Label             string                        `yaml:"label"`
	Min               float64                       `yaml:"min"`
	Max               float64                       `yaml:"max"`
	CalorieAdjustment float64                       `yaml:"calorie_adjustment"`
	Advice            string                        `yaml:"advice"`
	ScoreBonus        int                           `yaml:"score_bonus"`
	NutrientLimits    map[string]NutrientMultiplier `yaml:"nutrient_limits"`
}

// Contains reports whether bmi falls inside the band.
func (c BMICategory) Contains(bmi float64) bool {
	return c.Min <= bmi && bmi < c.Max
}

// NutrientNote is an informational per-nutrient adjustment.
// Add, when set, is a kcal delta applied to the daily calorie budget.
type NutrientNote struct {
	Nutrient string `yaml:"nutrient"`
	Add      *int   `yaml:"add"`
	Reason   string `yaml:"reason"`
}

type AgeGroup struct {
	AgeRange            string         `yaml:"age_range"`
	DailyCalories       map[string]int `yaml:"daily_calories"`
	Warnings            []string       `yaml:"warnings"`
	NutrientAdjustments []NutrientNote `yaml:"nutrient_adjustments"`
}

type GenderAdjustment struct {
	BaseCalories int `yaml:"base_calories"`
}

type SpecialCondition struct {
	Aliases             []string       `yaml:"aliases"`
	ScoreImpact         int            `yaml:"score_impact"`
	Forbidden           []string       `yaml:"forbidden"`
	Warnings            []string       `yaml:"warnings"`
	NutrientAdjustments []NutrientNote `yaml:"nutrient_adjustments"`
}

// AllergenAlias groups the spellings of one canonical allergen.
type AllergenAlias struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Terms returns the canonical name followed by every alias.
func (a AllergenAlias) Terms() []string {
	return append([]string{a.Canonical}, a.Aliases...)
}

// DietCategory is a named group of substrings a diet forbids.
type DietCategory struct {
	Category  string   `yaml:"category"`
	Forbidden []string `yaml:"forbidden"`
}

// Tables is the immutable lookup data behind personalization and matching.
// Build it with DefaultTables, LoadTables or ParseTables; do not mutate it afterwards.
type Tables struct {
	BMICategories     []BMICategory               `yaml:"bmi_categories"`
	DefaultAgeGroup   string                      `yaml:"default_age_group"`
	AgeGroups         map[string]AgeGroup         `yaml:"age_groups"`
	GenderAdjustments map[string]GenderAdjustment `yaml:"gender_adjustments"`
	MaleSynonyms      []string                    `yaml:"male_synonyms"`
	SpecialConditions map[string]SpecialCondition `yaml:"special_conditions"`
	AllergenAliases   []AllergenAlias             `yaml:"allergen_aliases"`
	DietAliases       map[string]string           `yaml:"diet_aliases"`
	DietRules         map[string][]DietCategory   `yaml:"diet_rules"`

	maleSet      map[string]struct{}
	conditionIdx map[string]string
	allergenIdx  map[string]int
}

// DefaultTables parses the tables compiled into the binary.
func DefaultTables() (*Tables, error) {
	return ParseTables(defaultTablesYAML)
}

// LoadTables reads tables from path, or the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates a YAML tables document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.index()
	return &t, nil
}

// Validate checks the structural constraints the calculators rely on.
func (t *Tables) Validate() error {
	var errs []error
	for i, c := range t.BMICategories {
		if c.Key == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("bmi_categories[%d].key", i), Message: "is required"})
		}
		if c.Max <= c.Min {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("bmi_categories[%d]", i), Message: fmt.Sprintf("max %.1f must exceed min %.1f", c.Max, c.Min)})
		}
		for nutrient, m := range c.NutrientLimits {
			if m.MaxMultiplier < 0 {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("bmi_categories[%s].nutrient_limits.%s", c.Key, nutrient), Message: "max_multiplier must not be negative"})
			}
		}
	}
	if t.DefaultAgeGroup != "" {
		if _, ok := t.AgeGroups[t.DefaultAgeGroup]; !ok {
			errs = append(errs, ValidationError{Field: "default_age_group", Message: fmt.Sprintf("unknown age group %q", t.DefaultAgeGroup)})
		}
	}
	for i, a := range t.AllergenAliases {
		if strings.TrimSpace(a.Canonical) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("allergen_aliases[%d].canonical", i), Message: "is required"})
		}
	}
	for diet, target := range t.DietAliases {
		if _, ok := t.DietRules[target]; !ok {
			errs = append(errs, ValidationError{Field: "diet_aliases." + diet, Message: fmt.Sprintf("unknown diet %q", target)})
		}
	}
	return errors.Join(errs...)
}

func (t *Tables) index() {
	t.maleSet = make(map[string]struct{}, len(t.MaleSynonyms))
	for _, s := range t.MaleSynonyms {
		t.maleSet[normalize(s)] = struct{}{}
	}

	t.conditionIdx = make(map[string]string)
	for key, cond := range t.SpecialConditions {
		t.conditionIdx[normalize(key)] = key
		for _, alias := range cond.Aliases {
			t.conditionIdx[normalize(alias)] = key
		}
	}

	// first group wins when a term is listed twice
	t.allergenIdx = make(map[string]int)
	for i, group := range t.AllergenAliases {
		for _, term := range group.Terms() {
			n := normalize(term)
			if _, seen := t.allergenIdx[n]; !seen && n != "" {
				t.allergenIdx[n] = i
			}
		}
	}
}

// ResolveAgeGroup returns the key and group for label, falling back to the default group.
func (t *Tables) ResolveAgeGroup(label string) (string, AgeGroup, bool) {
	key := strings.TrimSpace(label)
	if g, ok := t.AgeGroups[key]; ok {
		return key, g, true
	}
	g, ok := t.AgeGroups[t.DefaultAgeGroup]
	return t.DefaultAgeGroup, g, ok
}

// NormalizeGender maps any male synonym to "male" and everything else to "female".
func (t *Tables) NormalizeGender(gender string) string {
	if _, ok := t.maleSet[normalize(gender)]; ok {
		return "male"
	}
	return "female"
}

// LookupCondition resolves a special condition by key or alias.
func (t *Tables) LookupCondition(name string) (string, SpecialCondition, bool) {
	key, ok := t.conditionIdx[normalize(name)]
	if !ok {
		return "", SpecialCondition{}, false
	}
	return key, t.SpecialConditions[key], true
}

// AllergenGroup returns the alias group whose canonical name or alias equals term.
func (t *Tables) AllergenGroup(term string) (AllergenAlias, bool) {
	i, ok := t.allergenIdx[normalize(term)]
	if !ok {
		return AllergenAlias{}, false
	}
	return t.AllergenAliases[i], true
}

// DietCategories returns the forbidden categories for a diet type.
// Unknown, empty and "none" diets forbid nothing.
func (t *Tables) DietCategories(dietType string) (string, []DietCategory) {
	key := normalize(dietType)
	if alias, ok := t.DietAliases[key]; ok {
		key = alias
	}
	if key == "" || key == "none" {
		return "", nil
	}
	return key, t.DietRules[key]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
