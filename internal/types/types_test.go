package types

import (
	"encoding/json"
	"testing"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisRequestAcceptsBothKeyStyles(t *testing.T) {
	t.Run("camelCase", func(t *testing.T) {
		var req AnalysisRequest
		err := json.Unmarshal([]byte(`{
			"userId": "u1",
			"productData": {"productName": "초코우유", "nutritionalInfo": {"sugar": 15, "saturatedFat": "2.5"}, "ingredients": ["우유"], "allergens": ["우유"]},
			"userProfile": {"height": 170, "weight": "65", "ageRange": "30대", "gender": "male", "specialConditions": ["임신"], "dietType": "vegan"}
		}`), &req)
		require.NoError(t, err)

		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "초코우유", req.ProductData.ProductName)
		sugar, ok := req.ProductData.NutritionalInfo.Value("sugar")
		assert.True(t, ok)
		assert.Equal(t, 15.0, sugar)
		sat, ok := req.ProductData.NutritionalInfo.Value(NutrientSaturatedFat)
		assert.True(t, ok)
		assert.Equal(t, 2.5, sat)

		require.NotNil(t, req.UserProfile.Weight)
		assert.Equal(t, 65.0, *req.UserProfile.Weight)
		assert.Equal(t, "30대", req.UserProfile.AgeRange)
		assert.Equal(t, []string{"임신"}, req.UserProfile.SpecialConditions)
		assert.Equal(t, "vegan", req.UserProfile.DietType)
		assert.True(t, req.HasProfile)
	})

	t.Run("snake_case", func(t *testing.T) {
		var req AnalysisRequest
		err := json.Unmarshal([]byte(`{
			"user_id": "u2",
			"product_data": {"product_name": "라면", "nutritional_info": {"sodium": 1800, "trans_fat": 0}},
			"user_profile": {"age_range": "40대", "special_conditions": ["다이어트"], "diet_type": "halal"}
		}`), &req)
		require.NoError(t, err)

		assert.Equal(t, "u2", req.UserID)
		assert.Equal(t, "라면", req.ProductData.ProductName)
		trans, ok := req.ProductData.NutritionalInfo.Value("transFat")
		assert.True(t, ok)
		assert.Equal(t, 0.0, trans)
		assert.Equal(t, "40대", req.UserProfile.AgeRange)
		assert.Equal(t, []string{"다이어트"}, req.UserProfile.SpecialConditions)
		assert.Equal(t, "halal", req.UserProfile.DietType)
		assert.Nil(t, req.UserProfile.Height)
		assert.True(t, req.HasProfile)
	})

	t.Run("profile omitted", func(t *testing.T) {
		var req AnalysisRequest
		require.NoError(t, json.Unmarshal([]byte(`{"productData": {"productName": "라면"}}`), &req))
		assert.False(t, req.HasProfile)
		assert.Empty(t, req.UserProfile.Allergies)
	})
}

func TestFlexFloat(t *testing.T) {
	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"height": null, "weight": ""}`), &p))
	assert.Nil(t, p.Height)
	assert.Nil(t, p.Weight)

	err := json.Unmarshal([]byte(`{"height": "tall"}`), &p)
	assert.Error(t, err)
}

func TestNutritionalInfoAbsenceIsNotZero(t *testing.T) {
	info := &NutritionalInfo{Sodium: Float(0)}

	v, ok := info.Value("sodium")
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = info.Value("sugar")
	assert.False(t, ok)
	assert.Equal(t, []string{"sodium"}, info.Keys())
	assert.False(t, info.IsEmpty())

	var missing *NutritionalInfo
	_, ok = missing.Value("sodium")
	assert.False(t, ok)
	assert.True(t, missing.IsEmpty())
}

func TestProfileNormalized(t *testing.T) {
	p := UserProfile{
		Allergies:         []string{" 우유", "Milk", "milk", ""},
		Diseases:          []string{"Diabetes", "당뇨", "diabetes"},
		SpecialConditions: []string{"임신", "임신 "},
		Gender:            " Male ",
	}
	n := p.Normalized()

	assert.Equal(t, []string{"우유", "milk"}, n.Allergies)
	assert.Equal(t, []string{"diabetes", "당뇨"}, n.Diseases)
	assert.Equal(t, []string{"임신"}, n.SpecialConditions)
	assert.Equal(t, "male", n.Gender)
	assert.Equal(t, []string{"우유", "milk", "diabetes", "당뇨"}, n.Conditions())
	assert.True(t, n.HasDisease("당뇨", "diabetes"))
	assert.False(t, n.HasDisease("고혈압"))
	assert.False(t, UserProfile{Diseases: []string{"prediabetes"}}.HasDisease("diabetes"))
	assert.True(t, UserProfile{Diseases: []string{" Diabetes "}}.HasDisease("diabetes"))

	// the original is untouched
	assert.Equal(t, "Milk", p.Allergies[1])
}

func TestPersonalizationMultiplierDefaultsToOne(t *testing.T) {
	var p *PersonalizationResult
	assert.Equal(t, 1.0, p.Multiplier("sodium"))

	p = &PersonalizationResult{}
	assert.Equal(t, 1.0, p.Multiplier("sodium"))
}

func TestCanonicalNutrient(t *testing.T) {
	assert.Equal(t, NutrientSaturatedFat, CanonicalNutrient("saturatedFat"))
	assert.Equal(t, NutrientSaturatedFat, CanonicalNutrient(" saturated_fat "))
	assert.Equal(t, NutrientTransFat, CanonicalNutrient("TransFat"))
	assert.Equal(t, NutrientCarbohydrates, CanonicalNutrient("carbs"))
	assert.Equal(t, NutrientSodium, CanonicalNutrient("Sodium"))

	p := &PersonalizationResult{NutrientLimits: map[string]config.NutrientMultiplier{NutrientSaturatedFat: {MaxMultiplier: 0.7}}}
	assert.Equal(t, 0.7, p.Multiplier("saturatedFat"))
	assert.Equal(t, 0.7, p.Multiplier("saturatedfat"))
}

func TestSuitabilityValid(t *testing.T) {
	assert.True(t, SuitabilityDanger.Valid())
	assert.False(t, Suitability("unknown").Valid())
}
