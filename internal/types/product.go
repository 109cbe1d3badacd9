package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// Nutrient keys shared by rules, personalization tables and product data.
const (
	NutrientCalories      = "calories"
	NutrientCarbohydrates = "carbohydrates"
	NutrientProtein       = "protein"
	NutrientFat           = "fat"
	NutrientSodium        = "sodium"
	NutrientSugar         = "sugar"
	NutrientFiber         = "fiber"
	NutrientCholesterol   = "cholesterol"
	NutrientSaturatedFat  = "saturated_fat"
	NutrientTransFat      = "trans_fat"
)

// NutritionalInfo holds the parsed nutrition facts of a product.
// A nil field is unknown, not zero.
type NutritionalInfo struct {
	Calories      *float64 `json:"calories,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Cholesterol   *float64 `json:"cholesterol,omitempty"`
	SaturatedFat  *float64 `json:"saturatedFat,omitempty"`
	TransFat      *float64 `json:"transFat,omitempty"`
}

func (n *NutritionalInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Calories          FlexFloat `json:"calories"`
		Carbohydrates     FlexFloat `json:"carbohydrates"`
		Protein           FlexFloat `json:"protein"`
		Fat               FlexFloat `json:"fat"`
		Sodium            FlexFloat `json:"sodium"`
		Sugar             FlexFloat `json:"sugar"`
		Fiber             FlexFloat `json:"fiber"`
		Cholesterol       FlexFloat `json:"cholesterol"`
		SaturatedFat      FlexFloat `json:"saturatedFat"`
		SaturatedFatSnake FlexFloat `json:"saturated_fat"`
		TransFat          FlexFloat `json:"transFat"`
		TransFatSnake     FlexFloat `json:"trans_fat"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.SaturatedFat.Valid {
		raw.SaturatedFat = raw.SaturatedFatSnake
	}
	if !raw.TransFat.Valid {
		raw.TransFat = raw.TransFatSnake
	}
	*n = NutritionalInfo{
		Calories:      raw.Calories.Ptr(),
		Carbohydrates: raw.Carbohydrates.Ptr(),
		Protein:       raw.Protein.Ptr(),
		Fat:           raw.Fat.Ptr(),
		Sodium:        raw.Sodium.Ptr(),
		Sugar:         raw.Sugar.Ptr(),
		Fiber:         raw.Fiber.Ptr(),
		Cholesterol:   raw.Cholesterol.Ptr(),
		SaturatedFat:  raw.SaturatedFat.Ptr(),
		TransFat:      raw.TransFat.Ptr(),
	}
	return nil
}

func (n *NutritionalInfo) fields() map[string]*float64 {
	return map[string]*float64{
		NutrientCalories:      n.Calories,
		NutrientCarbohydrates: n.Carbohydrates,
		NutrientProtein:       n.Protein,
		NutrientFat:           n.Fat,
		NutrientSodium:        n.Sodium,
		NutrientSugar:         n.Sugar,
		NutrientFiber:         n.Fiber,
		NutrientCholesterol:   n.Cholesterol,
		NutrientSaturatedFat:  n.SaturatedFat,
		NutrientTransFat:      n.TransFat,
	}
}

// CanonicalNutrient maps a nutrient key to its snake_case form.
// Case and camelCase spellings are accepted.
func CanonicalNutrient(nutrient string) string {
	key := strings.ToLower(strings.TrimSpace(nutrient))
	switch key {
	case "saturatedfat", "saturated-fat":
		return NutrientSaturatedFat
	case "transfat", "trans-fat":
		return NutrientTransFat
	case "carbs", "carbohydrate":
		return NutrientCarbohydrates
	}
	return key
}

// Value returns the measured value for a nutrient key and whether it is known.
func (n *NutritionalInfo) Value(nutrient string) (float64, bool) {
	if n == nil {
		return 0, false
	}
	key := CanonicalNutrient(nutrient)
	v, ok := n.fields()[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Values returns only the nutrients that were measured.
func (n *NutritionalInfo) Values() map[string]float64 {
	out := make(map[string]float64)
	if n == nil {
		return out
	}
	for k, v := range n.fields() {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// Keys returns the measured nutrient keys in sorted order.
func (n *NutritionalInfo) Keys() []string {
	values := n.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no nutrient was measured.
func (n *NutritionalInfo) IsEmpty() bool {
	return len(n.Values()) == 0
}

// ProductData is the pre-parsed product record produced upstream by OCR.
type ProductData struct {
	ProductName     string           `json:"productName"`
	NutritionalInfo *NutritionalInfo `json:"nutritionalInfo,omitempty"`
	Ingredients     []string         `json:"ingredients"`
	Allergens       []string         `json:"allergens"`
}

func (p *ProductData) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductName          string           `json:"productName"`
		ProductNameSnake     string           `json:"product_name"`
		NutritionalInfo      *NutritionalInfo `json:"nutritionalInfo"`
		NutritionalInfoSnake *NutritionalInfo `json:"nutritional_info"`
		Ingredients          []string         `json:"ingredients"`
		Allergens            []string         `json:"allergens"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ProductData{
		ProductName:     firstNonEmpty(raw.ProductName, raw.ProductNameSnake),
		NutritionalInfo: raw.NutritionalInfo,
		Ingredients:     raw.Ingredients,
		Allergens:       raw.Allergens,
	}
	if p.NutritionalInfo == nil {
		p.NutritionalInfo = raw.NutritionalInfoSnake
	}
	return nil
}

// DisplayName falls back to a placeholder for unnamed products.
func (p ProductData) DisplayName() string {
	if strings.TrimSpace(p.ProductName) == "" {
		return "알 수 없는 제품"
	}
	return p.ProductName
}

// Float returns a pointer to v, for building optional nutrient values.
func Float(v float64) *float64 {
	return &v
}
