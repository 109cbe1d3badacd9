package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil || b == nil {
		*a = JSONBStringArray{}
		return err
	}
	return json.Unmarshal(b, a)
}

// NutrientLimit is the static ceiling a rule places on one nutrient.
// A nil Max means the rule carries no ceiling for that nutrient.
type NutrientLimit struct {
	Max *float64 `json:"max"`
}

// NutrientLimits maps nutrient keys to their ceilings, stored as JSON.
type NutrientLimits map[string]NutrientLimit

// Keys returns the nutrient keys in sorted order.
func (l NutrientLimits) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l NutrientLimits) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *NutrientLimits) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil || b == nil {
		*l = NutrientLimits{}
		return err
	}
	return json.Unmarshal(b, l)
}

// JSONBFloatMap stores a nutrient snapshot.
type JSONBFloatMap map[string]float64

func (m JSONBFloatMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONBFloatMap) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil || b == nil {
		*m = JSONBFloatMap{}
		return err
	}
	return json.Unmarshal(b, m)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
