package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UserProfile is the per-request description of the person a product is checked for.
// Height is in cm and Weight in kg; nil means unknown.
type UserProfile struct {
	Height            *float64 `json:"height,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
	AgeRange          string   `json:"ageRange,omitempty"`
	Gender            string   `json:"gender,omitempty"`
	Allergies         []string `json:"allergies"`
	Diseases          []string `json:"diseases"`
	SpecialConditions []string `json:"specialConditions"`
	DietType          string   `json:"dietType,omitempty"`
}

// UnmarshalJSON accepts both camelCase and snake_case keys, and numeric
// strings for the body measurements.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		Height                 FlexFloat `json:"height"`
		Weight                 FlexFloat `json:"weight"`
		AgeRange               string    `json:"ageRange"`
		AgeRangeSnake          string    `json:"age_range"`
		Gender                 string    `json:"gender"`
		Allergies              []string  `json:"allergies"`
		Diseases               []string  `json:"diseases"`
		SpecialConditions      []string  `json:"specialConditions"`
		SpecialConditionsSnake []string  `json:"special_conditions"`
		DietType               string    `json:"dietType"`
		DietTypeSnake          string    `json:"diet_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = UserProfile{
		Height:            raw.Height.Ptr(),
		Weight:            raw.Weight.Ptr(),
		AgeRange:          firstNonEmpty(raw.AgeRange, raw.AgeRangeSnake),
		Gender:            raw.Gender,
		Allergies:         raw.Allergies,
		Diseases:          raw.Diseases,
		SpecialConditions: raw.SpecialConditions,
		DietType:          firstNonEmpty(raw.DietType, raw.DietTypeSnake),
	}
	if len(p.SpecialConditions) == 0 {
		p.SpecialConditions = raw.SpecialConditionsSnake
	}
	return nil
}

// Normalized returns a copy whose allergies, diseases and special conditions
// are lowercased, trimmed and de-duplicated in first-seen order.
func (p UserProfile) Normalized() UserProfile {
	out := p
	out.AgeRange = strings.TrimSpace(p.AgeRange)
	out.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	out.DietType = strings.ToLower(strings.TrimSpace(p.DietType))
	out.Allergies = NormalizeSet(p.Allergies)
	out.Diseases = NormalizeSet(p.Diseases)
	out.SpecialConditions = NormalizeSet(p.SpecialConditions)
	return out
}

// Conditions is the union of allergies and diseases, used for rule lookup.
func (p UserProfile) Conditions() []string {
	return NormalizeSet(append(append([]string{}, p.Allergies...), p.Diseases...))
}

// HasDisease reports whether a disease label equals one of the given terms,
// ignoring case and surrounding space. "prediabetes" does not match "diabetes".
func (p UserProfile) HasDisease(terms ...string) bool {
	for _, d := range p.Diseases {
		d = strings.ToLower(strings.TrimSpace(d))
		for _, term := range terms {
			if d == strings.ToLower(strings.TrimSpace(term)) {
				return true
			}
		}
	}
	return false
}

// NormalizeSet lowercases, trims and de-duplicates values, dropping empties.
func NormalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := strings.ToLower(strings.TrimSpace(v))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// FlexFloat decodes a JSON number, numeric string or null.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FlexFloat{}
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat{Value: num, Valid: true}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			*f = FlexFloat{}
			return nil
		}
		num, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric value %q", str)
		}
		*f = FlexFloat{Value: num, Valid: true}
		return nil
	}

	return fmt.Errorf("invalid numeric value %s", string(data))
}

// Ptr returns nil for an absent value.
func (f FlexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
